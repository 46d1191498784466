// Package prompt provides the interactive yes/no collaborator used by the
// "ask" merge strategy. Interactive terminals get a huh confirm form;
// everything else falls back to a plain y/N line prompt so scripted runs and
// tests still work.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// Prompter answers yes/no questions, blocking until answered.
type Prompter interface {
	// Confirm asks a yes/no question with the given default answer.
	Confirm(title string, def bool) (bool, error)
}

// New returns a prompter appropriate for the current process: interactive
// when stdin is a terminal, line-based otherwise.
func New() Prompter {
	if isTerminal(os.Stdin) {
		return &formPrompter{}
	}
	return &linePrompter{in: os.Stdin, out: os.Stderr}
}

// formPrompter renders a huh confirm form.
type formPrompter struct{}

// Confirm implements Prompter.
func (p *formPrompter) Confirm(title string, def bool) (bool, error) {
	value := def
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&value),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return value, nil
}

// linePrompter reads a y/N answer from a reader.
type linePrompter struct {
	in  io.Reader
	out io.Writer
}

// NewLine returns a line-based prompter reading from in and writing the
// question to out.
func NewLine(in io.Reader, out io.Writer) Prompter {
	return &linePrompter{in: in, out: out}
}

// Confirm implements Prompter.
func (p *linePrompter) Confirm(title string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s [%s]: ", title, hint)

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return def, nil
	}
}

// staticPrompter always answers the same way.
type staticPrompter struct {
	answer bool
}

// Static returns a prompter with a fixed answer, for tests and auto-approve
// flows.
func Static(answer bool) Prompter {
	return &staticPrompter{answer: answer}
}

// Confirm implements Prompter.
func (p *staticPrompter) Confirm(string, bool) (bool, error) {
	return p.answer, nil
}

// isTerminal checks if the file is attached to a terminal.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
