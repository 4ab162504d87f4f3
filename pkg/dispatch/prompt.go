package dispatch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator for decisions.
type Prompter interface {
	// Confirm shows question and proceeds only on an exact "y".
	Confirm(question string) (bool, error)
	// WaitEnter shows message and blocks until a line is entered.
	WaitEnter(message string) error
}

// ConsolePrompter reads operator input line by line.
type ConsolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePrompter creates a prompter over the given streams.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: bufio.NewReader(in), out: out}
}

func (p *ConsolePrompter) Confirm(question string) (bool, error) {
	if question != "" {
		fmt.Fprintln(p.out, question)
	}
	fmt.Fprintln(p.out, "Enter 'y' to proceed, or any other key to skip.")
	fmt.Fprint(p.out, "> ")
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	return line == "y", nil
}

func (p *ConsolePrompter) WaitEnter(message string) error {
	if message != "" {
		fmt.Fprintln(p.out, message)
	}
	_, err := p.readLine()
	return err
}

// readLine returns one trimmed line. End of input counts as an empty line.
func (p *ConsolePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
