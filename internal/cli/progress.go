package cli

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

// WithSpinner runs fn while showing message next to a spinner on stderr.
// The spinner is skipped when quiet is set or stderr is not a terminal.
func WithSpinner(quiet bool, message string, fn func() error) error {
	if quiet || !term.IsTerminal(int(os.Stderr.Fd())) {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()

	err := fn()
	if err != nil {
		s.FinalMSG = text.FgRed.Sprint("✗ "+message) + "\n"
	}
	s.Stop()
	return err
}
