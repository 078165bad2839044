package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
)

const envPassphrase = "SATCORE_PASSPHRASE"

// passModel is a masked single-line password prompt for unlocking the
// Ed25519 private key.
type passModel struct {
	ti      textinput.Model
	prompt  string
	done    bool
	aborted bool
}

func newPassModel(prompt string) passModel {
	ti := textinput.New()
	ti.Placeholder = ""
	ti.Prompt = prompt + ": "
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Focus()
	return passModel{ti: ti, prompt: prompt}
}

func (m passModel) Init() tea.Cmd { return textinput.Blink }

func (m passModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m passModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	return "\n" + m.ti.View() + "\n"
}

func isTTY(f *os.File) bool {
	return term.IsTerminal(f.Fd())
}

// obtainPassphrase prompts for the Ed25519 private-key passphrase.
// Order of precedence:
//  1. SATCORE_PASSPHRASE env
//  2. Bubble Tea masked prompt if stdin/stdout are a TTY
func obtainPassphrase(prompt string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(envPassphrase)); v != "" {
		return v, nil
	}

	if !isTTY(os.Stdout) || !isTTY(os.Stdin) {
		return "", fmt.Errorf("no TTY and %s not set", envPassphrase)
	}

	m := newPassModel(prompt)
	res, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", err
	}
	pm := res.(passModel)
	if pm.aborted {
		return "", fmt.Errorf("aborted")
	}
	val := strings.TrimSpace(pm.ti.Value())
	if val == "" {
		return "", fmt.Errorf("empty passphrase")
	}
	return val, nil
}
