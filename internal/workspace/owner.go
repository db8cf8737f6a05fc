package workspace

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
)

// ResolveOwner turns "user[:group]" (names or numeric ids) into an Owner.
// An empty spec falls back to SUDO_UID/SUDO_GID, so trees created under sudo belong
// to the invoking operator. Returns nil when there is nobody to hand ownership to.
func ResolveOwner(spec string) (*Owner, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		uid, gid := os.Getenv("SUDO_UID"), os.Getenv("SUDO_GID")
		if uid == "" || gid == "" {
			return nil, nil
		}
		return parseIDs(uid, gid)
	}

	userPart, groupPart, hasGroup := strings.Cut(spec, ":")

	uid, primaryGID, err := lookupUser(userPart)
	if err != nil {
		return nil, err
	}
	gid := primaryGID
	if hasGroup && groupPart != "" {
		gid, err = lookupGroup(groupPart)
		if err != nil {
			return nil, err
		}
	}
	return parseIDs(uid, gid)
}

func lookupUser(name string) (uid, gid string, err error) {
	if _, err := strconv.Atoi(name); err == nil {
		u, err := user.LookupId(name)
		if err != nil {
			return name, name, nil
		}
		return u.Uid, u.Gid, nil
	}
	u, err := user.Lookup(name)
	if err != nil {
		return "", "", fmt.Errorf("owner %q: %w", name, err)
	}
	return u.Uid, u.Gid, nil
}

func lookupGroup(name string) (string, error) {
	if _, err := strconv.Atoi(name); err == nil {
		return name, nil
	}
	g, err := user.LookupGroup(name)
	if err != nil {
		return "", fmt.Errorf("owner group %q: %w", name, err)
	}
	return g.Gid, nil
}

func parseIDs(uid, gid string) (*Owner, error) {
	u, err := strconv.Atoi(uid)
	if err != nil {
		return nil, fmt.Errorf("invalid uid %q", uid)
	}
	g, err := strconv.Atoi(gid)
	if err != nil {
		return nil, fmt.Errorf("invalid gid %q", gid)
	}
	return &Owner{UID: u, GID: g}, nil
}
