package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Approver gates every stake mutation. In unattended mode it always
// approves; interactively it asks the operator.
type Approver interface {
	Approve(prompt string) bool
}

// AutoApprover approves every transfer (unattended mode).
type AutoApprover struct{}

func (AutoApprover) Approve(string) bool { return true }

// StaticApprover answers every prompt with a fixed decision. Test helper.
type StaticApprover bool

func (s StaticApprover) Approve(string) bool { return bool(s) }

// PromptApprover asks a yes/no question on the terminal. When stdin is not a
// terminal it declines, so a misconfigured headless deployment never
// auto-approves transfers.
type PromptApprover struct {
	In  *os.File
	Out io.Writer
}

// NewPromptApprover builds an approver reading from stdin and writing to stdout.
func NewPromptApprover() *PromptApprover {
	return &PromptApprover{In: os.Stdin, Out: os.Stdout}
}

func (p *PromptApprover) Approve(prompt string) bool {
	if !isatty.IsTerminal(p.In.Fd()) && !isatty.IsCygwinTerminal(p.In.Fd()) {
		return false
	}
	fmt.Fprintf(p.Out, "%s (y/n): ", prompt)
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
