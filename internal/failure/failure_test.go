package failure

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromIO(t *testing.T) {
	perm := &fs.PathError{Op: "open", Path: "/etc/hosts", Err: fs.ErrPermission}
	err := FromIO("write hosts", perm)
	assert.True(t, Is(err, PermissionDenied))
	assert.ErrorIs(t, err, fs.ErrPermission)

	other := FromIO("mkdir", errors.New("disk full"))
	assert.True(t, Is(other, Filesystem))

	assert.NoError(t, FromIO("noop", nil))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("deploy dc01: %w", Invalid("validate", "bad ip %q", "1.2.3"))
	assert.Equal(t, Validation, KindOf(err))
	assert.Contains(t, err.Error(), `bad ip "1.2.3"`)
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, Is(nil, Validation))
}
