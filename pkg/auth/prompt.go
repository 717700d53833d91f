package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads a credential from an operator
type Prompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminalPrompter prompts on stdin/stderr
func NewTerminalPrompter() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stderr}
}

// IsInteractive reports whether In is a terminal
func (p *Prompter) IsInteractive() bool {
	f, ok := p.In.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Prompt asks for the username (unless given) and the password. The password
// is read without echo when In is a terminal.
func (p *Prompter) Prompt(username string) (*Credential, error) {
	if username == "" {
		fmt.Fprint(p.Out, "Username (email): ")
		line, err := p.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("failed to read username: %w", err)
		}
		username = line
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidCredentials)
	}

	fmt.Fprintf(p.Out, "Password for %s: ", username)
	password, err := p.ReadSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidCredentials)
	}

	return &Credential{Username: username, Password: password}, nil
}

// ReadLine reads one trimmed line of input
func (p *Prompter) ReadLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads a line without echo on terminals
func (p *Prompter) ReadSecret() (string, error) {
	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	return p.ReadLine()
}
