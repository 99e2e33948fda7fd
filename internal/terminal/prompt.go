package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when stdin closes before a line was entered.
var ErrNoInput = errors.New("no input")

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ReadPassword prints prompt and reads a line without echo. When stdin is not a
// terminal (piped input in scripts) the line is read as-is.
func ReadPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return ReadLine(bufio.NewReader(os.Stdin))
}

// Prompt prints prompt and reads one trimmed line from r.
func Prompt(r *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	return ReadLine(r)
}

// ReadLine reads one line from r without its line terminator.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
