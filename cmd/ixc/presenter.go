package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	frameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	deviceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	configStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
)

// terminalPresenter renders controller output to the terminal: markdown
// answers through glamour, device output and notices through lipgloss
// styles, and the configuration confirmation gate through a y/n prompt.
type terminalPresenter struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

func newTerminalPresenter(in io.Reader, out, errOut io.Writer) *terminalPresenter {
	return &terminalPresenter{
		in:  bufio.NewReader(in),
		out: out,
		err: errOut,
	}
}

func (p *terminalPresenter) ShowAnswer(markdown string) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
	)
	if err != nil {
		fmt.Fprintln(p.out, markdown)
		return
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		fmt.Fprintln(p.out, markdown)
		return
	}
	fmt.Fprint(p.out, rendered)
}

func (p *terminalPresenter) ShowDeviceOutput(text string) {
	fmt.Fprintln(p.out, deviceStyle.Render(text))
}

func (p *terminalPresenter) ShowInfo(text string) {
	fmt.Fprintln(p.out, infoStyle.Render(text))
}

func (p *terminalPresenter) ShowError(err error) {
	fmt.Fprintln(p.err, errorStyle.Render("error: "+err.Error()))
}

// ConfirmConfig shows the proposed lines and asks for approval. Anything
// but an explicit yes discards the proposal.
func (p *terminalPresenter) ConfirmConfig(lines []string) bool {
	fmt.Fprintln(p.out, configStyle.Render("proposed configuration:"))
	for _, line := range lines {
		fmt.Fprintln(p.out, "  "+line)
	}
	fmt.Fprint(p.out, "apply to device? [y/N] ")

	reply, err := p.in.ReadString('\n')
	if err != nil {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// readLine reads one operator input line, sharing the buffered reader
// with the confirmation prompt so no input is lost between them.
func (p *terminalPresenter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
