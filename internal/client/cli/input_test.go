package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPrompter(input string) (prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return prompter{in: bufio.NewReader(strings.NewReader(input)), out: out}, out
}

func stubTerminal(t *testing.T, terminal bool, read func(int) ([]byte, error)) {
	t.Helper()
	oldTerm, oldRead := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = oldTerm, oldRead })
	isTerminal = func(int) bool { return terminal }
	readPassword = read
}

func TestPrompter_Text(t *testing.T) {
	p, out := newPrompter("  rahim \nkarim")

	got, err := p.text("Username")
	require.NoError(t, err)
	assert.Equal(t, "rahim", got)
	assert.Equal(t, "Username: ", out.String())

	got, err = p.text("Username")
	require.NoError(t, err)
	assert.Equal(t, "karim", got)

	_, err = p.text("Username")
	require.ErrorIs(t, err, io.EOF)
}

func TestPrompter_Symptoms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "stops on empty line", input: "fever\ncough\n\nignored\n", want: "fever\ncough"},
		{name: "windows newlines", input: "fever\r\ncough\r\n\r\n", want: "fever\ncough"},
		{name: "whitespace line ends input", input: "rash\n   \nignored\n", want: "rash"},
		{name: "eof without blank line", input: "chest pain", want: "chest pain"},
		{name: "nothing entered", input: "\n", want: ""},
		{name: "no input at all", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newPrompter(tt.input)
			got, err := p.symptoms()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "no", input: "No\n", def: true, want: false},
		{name: "empty takes default", input: "\n", def: true, want: true},
		{name: "eof takes default", input: "", want: false},
		{name: "asks again", input: "maybe\nyes\n", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newPrompter(tt.input)
			got, err := p.confirm("Use history?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	p, out := newPrompter("maybe\n\n")
	_, err := p.confirm("Use history?", false)
	require.NoError(t, err)
	assert.Equal(t, "Use history? [y/N] Please answer y or n\nUse history? [y/N] ", out.String())
}

func TestPrompter_PasswordFromTerminal(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return []byte("s3cret"), nil })

	p, out := newPrompter("not read\n")
	pw, err := p.password()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(pw))
	assert.Equal(t, "Password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = p.password()
	require.Error(t, err)
}

func TestPrompter_PasswordFromPipe(t *testing.T) {
	stubTerminal(t, false, func(int) ([]byte, error) {
		t.Fatal("terminal read on piped input")
		return nil, nil
	})

	p, _ := newPrompter("hill-tracts\n")
	pw, err := p.password()
	require.NoError(t, err)
	assert.Equal(t, "hill-tracts", string(pw))
}
