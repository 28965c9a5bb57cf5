// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/bureau-foundation/procsingleton/lib/singleton"
)

// terminalPrompt asks on the controlling terminal whether to unlock a
// profile held by another host. Without a terminal on stdin it
// declines.
type terminalPrompt struct {
	input      io.Reader
	output     io.Writer
	isTerminal func() bool
}

var _ singleton.ProfileInUsePrompt = (*terminalPrompt)(nil)

func newTerminalPrompt(input *os.File, output io.Writer) *terminalPrompt {
	return &terminalPrompt{
		input:  input,
		output: output,
		isTerminal: func() bool {
			return term.IsTerminal(int(input.Fd()))
		},
	}
}

var (
	warningStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))
	detailStyle = lipgloss.NewStyle().
			Faint(true)
)

// renderWarning formats the in-use message shown before the question.
func renderWarning(inUse singleton.LockOwner) string {
	body := strings.Join([]string{
		headingStyle.Render("Profile in use on another computer"),
		"",
		fmt.Sprintf("The profile appears to be in use by process %d on %s.", inUse.PID, inUse.Hostname),
		"If that process is not running, unlocking is safe. Unlocking a",
		"profile that is still in use can corrupt it.",
		"",
		detailStyle.Render("lock: " + inUse.LockPath),
	}, "\n")
	return warningStyle.Render(body)
}

func (p *terminalPrompt) ConfirmUnlock(ctx context.Context, inUse singleton.LockOwner) bool {
	if !p.isTerminal() {
		return false
	}

	fmt.Fprintln(p.output, renderWarning(inUse))
	fmt.Fprint(p.output, "Unlock the profile and continue? [y/N] ")

	answers := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(p.input).ReadString('\n')
		answers <- line
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.output)
		return false
	case answer := <-answers:
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}
