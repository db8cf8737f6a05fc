package workspace

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hakim/examkit/internal/validate"
)

// Prompter asks the operator for input
type Prompter interface {
	Ask(question string) (string, error)
	Say(message string)
}

// LinePrompter reads answers line by line from r and writes prompts to w
type LinePrompter struct {
	r *bufio.Reader
	w io.Writer
}

// NewLinePrompter creates a Prompter over a reader/writer pair (usually stdin/stdout)
func NewLinePrompter(r io.Reader, w io.Writer) *LinePrompter {
	return &LinePrompter{r: bufio.NewReader(r), w: w}
}

// Ask prints question and returns the trimmed answer.
// A final line without a newline is still returned; io.EOF only when nothing was read.
func (p *LinePrompter) Ask(question string) (string, error) {
	fmt.Fprint(p.w, question)
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Say prints a message on its own line
func (p *LinePrompter) Say(message string) {
	fmt.Fprintln(p.w, message)
}

// askUntil re-prompts until valid accepts the answer
func askUntil(p Prompter, question, invalid string, valid func(string) bool) (string, error) {
	for {
		answer, err := p.Ask(question)
		if err != nil {
			return "", fmt.Errorf("reading answer: %w", err)
		}
		if valid(answer) {
			return answer, nil
		}
		p.Say(invalid)
	}
}

func askIP(p Prompter, label string) (string, error) {
	return askUntil(p,
		fmt.Sprintf("Enter IP address for %s: ", label),
		"[!] Invalid IP address. Please enter again.",
		validate.IsValidIPv4)
}

// CollectPlan interactively gathers standalone names/IPs and AD role IPs
func CollectPlan(p Prompter, standaloneCount int, adRoles []string, mode validate.Mode) (Plan, error) {
	var plan Plan

	if standaloneCount > 0 {
		p.Say(fmt.Sprintf("[*] Please enter names and IP addresses for %d standalone systems:", standaloneCount))
	}
	for i := 1; i <= standaloneCount; i++ {
		name, err := askUntil(p,
			fmt.Sprintf("Enter name for standalone system %d (%s): ", i, mode.Describe()),
			fmt.Sprintf("[!] Invalid name. Only %s is allowed.", mode.Describe()),
			func(s string) bool { return validate.IsValidIdentifier(s, mode) })
		if err != nil {
			return plan, err
		}
		ip, err := askIP(p, name)
		if err != nil {
			return plan, err
		}
		plan.Standalone = append(plan.Standalone, PlanEntry{Name: name, IP: ip})
	}

	if len(adRoles) > 0 {
		p.Say("[*] Please enter IP addresses for the following Active Directory machines:")
	}
	for _, role := range adRoles {
		ip, err := askIP(p, role)
		if err != nil {
			return plan, err
		}
		plan.ActiveDirectory = append(plan.ActiveDirectory, PlanEntry{Name: role, IP: ip})
	}

	return plan, nil
}
