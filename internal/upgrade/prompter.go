package upgrade

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator for confirmation. Reads block until the
// operator answers; a closed input stream or any read failure is a decline,
// never an approval.
type Prompter interface {
	// Confirm asks a yes/no question, default no. "y" and "yes" accept,
	// case-insensitively.
	Confirm(question string) bool

	// ConfirmPhrase shows the question and requires the operator to type
	// the literal phrase. A bare "y" is not enough and case matters;
	// anything else declines.
	ConfirmPhrase(question, phrase string) bool
}

type consolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter returns a Prompter that reads answers from in and writes
// prompts to out.
func NewPrompter(in io.Reader, out io.Writer) Prompter {
	return &consolePrompter{in: bufio.NewReader(in), out: out}
}

func (p *consolePrompter) Confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)

	response, err := p.in.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func (p *consolePrompter) ConfirmPhrase(question, phrase string) bool {
	fmt.Fprintln(p.out, question)
	fmt.Fprintf(p.out, "Type %q to confirm (or press Enter to cancel): ", phrase)

	response, err := p.in.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == phrase
}
