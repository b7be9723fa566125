package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_NonTerminal(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompterFrom(strings.NewReader("alice\nhunter2\n"), &out)

	user, err := p.Line("Username")
	require.NoError(t, err)
	pass, err := p.Password("Password")
	require.NoError(t, err)

	assert.Equal(t, "alice", user)
	assert.Equal(t, "hunter2", pass)
	assert.Equal(t, "Username: Password: ", out.String())
}

func TestPrompter_LastLineWithoutNewline(t *testing.T) {
	p := NewPrompterFrom(strings.NewReader("alice"), &bytes.Buffer{})
	got, err := p.Line("Username")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
}

func TestPrompter_EmptyInput(t *testing.T) {
	p := NewPrompterFrom(strings.NewReader(""), &bytes.Buffer{})
	_, err := p.Line("Username")
	assert.Error(t, err)
}

func TestWithSpinner_QuietRunsFunction(t *testing.T) {
	called := false
	err := WithSpinner(true, "working", func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
