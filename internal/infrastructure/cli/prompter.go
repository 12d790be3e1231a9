package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/ports"
)

// Prompter implements ConfirmationPrompter using stdin/stdout. Concurrent
// confirmations (batch runs) are asked one at a time.
type Prompter struct {
	mu          sync.Mutex
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewPrompter constructs a prompter referencing stdio. It is interactive only
// when stdin is a terminal.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	interactive := false
	if in == nil {
		in = os.Stdin
		fd := os.Stdin.Fd()
		interactive = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	if out == nil {
		out = os.Stderr
	}
	return &Prompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
	}
}

// NewScriptedPrompter answers from in regardless of whether it is a terminal.
func NewScriptedPrompter(in io.Reader, out io.Writer) *Prompter {
	p := NewPrompter(in, out)
	p.interactive = true
	return p
}

// Enabled indicates the prompter can ask the user.
func (p *Prompter) Enabled() bool {
	return p.interactive
}

// Confirm asks the user whether action may run with params. Dangerous and
// critical actions require typing "yes".
func (p *Prompter) Confirm(action *domain.ActionDefinition, params map[string]any) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n%s risk action: %s\n", strings.ToUpper(string(action.Risk)), action.Name)
	if action.Description != "" {
		fmt.Fprintf(p.out, "  %s\n", action.Description)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(p.out, "  %s = %v\n", k, params[k])
	}

	if action.Risk.Rank() >= domain.RiskDangerous.Rank() {
		return p.askExplicit()
	}
	return p.ask("[y/N]: ")
}

func (p *Prompter) ask(prompt string) (bool, error) {
	fmt.Fprint(p.out, "Continue? ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

func (p *Prompter) askExplicit() (bool, error) {
	fmt.Fprint(p.out, "Type 'yes' to confirm (or anything else to cancel): ")
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}

var _ ports.ConfirmationPrompter = (*Prompter)(nil)
