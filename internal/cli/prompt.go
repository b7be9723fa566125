package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads interactive input.
type Prompter struct {
	in  io.Reader
	out io.Writer

	// fd is the terminal file descriptor of in, or -1.
	fd     int
	reader *bufio.Reader
}

// NewPrompter creates a Prompter on stdin and stderr.
func NewPrompter() *Prompter {
	return NewPrompterFrom(os.Stdin, os.Stderr)
}

// NewPrompterFrom creates a Prompter on explicit streams. Passwords are read
// without echo only when in is a terminal.
func NewPrompterFrom(in io.Reader, out io.Writer) *Prompter {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Prompter{in: in, out: out, fd: fd, reader: bufio.NewReader(in)}
}

// Line prompts for a single line of visible input.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// Password prompts for a secret. On a terminal the input is not echoed.
func (p *Prompter) Password(label string) (string, error) {
	if p.fd < 0 {
		return p.Line(label)
	}

	fmt.Fprintf(p.out, "%s: ", label)
	data, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return string(data), nil
}
