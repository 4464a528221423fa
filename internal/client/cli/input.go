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

// Terminal seams, replaced in tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// prompter asks questions on out and reads answers from in.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// readLine returns one line without its line ending. A final line that ends
// at EOF is returned with a nil error; io.EOF is reported only when nothing
// was left to read.
func (p prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// text asks a single-line question. Surrounding whitespace is trimmed.
func (p prompter) text(question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	line, err := p.readLine()
	return strings.TrimSpace(line), err
}

// symptoms collects a free-text description until an empty line or EOF.
func (p prompter) symptoms() (string, error) {
	fmt.Fprintln(p.out, "Describe your symptoms (empty line to finish):")

	var lines []string
	for {
		line, err := p.readLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// confirm asks a yes/no question. An empty answer or EOF picks def; anything
// unrecognised asks again.
func (p prompter) confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		fmt.Fprintf(p.out, "%s %s ", question, hint)
		line, err := p.readLine()
		if errors.Is(err, io.EOF) {
			return def, nil
		}
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n")
	}
}

// password reads without echo from a terminal on stdin. Piped input is read
// as a plain line so the shell can be scripted. Callers clear the result.
func (p prompter) password() ([]byte, error) {
	fmt.Fprint(p.out, "Password: ")

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}

	pw, err := readPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
