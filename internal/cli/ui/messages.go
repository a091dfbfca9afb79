package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message is a formatted CLI diagnostic
type Message struct {
	Level       Level
	Context     string
	Problem     string
	Suggestions []string
	Help        []string
	NoColor     bool
}

// String formats the message.
//
//	❌ FIXTURE NOT FOUND: could not find fixture `app.Artcles`
//
//	   Did you mean: app/fixture/Articles?
//
//	   → See all fixtures: conduit fixtures list
func (m Message) String() string {
	var b strings.Builder

	var head *color.Color
	var symbol string
	switch m.Level {
	case LevelWarning:
		head, symbol = color.New(color.FgYellow, color.Bold), "⚠️"
	case LevelInfo:
		head, symbol = color.New(color.FgCyan, color.Bold), "ℹ️"
	default:
		head, symbol = color.New(color.FgRed, color.Bold), "❌"
	}
	hint := color.New(color.FgYellow)
	link := color.New(color.FgCyan)
	if m.NoColor {
		head.DisableColor()
		hint.DisableColor()
		link.DisableColor()
	}

	if m.Context != "" {
		head.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(m.Context), m.Problem)
	} else {
		head.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}

	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		hint.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}

	if len(m.Help) > 0 {
		b.WriteString("\n")
		for _, h := range m.Help {
			link.Fprintf(&b, "   → %s\n", h)
		}
	}

	return b.String()
}

// Write writes the formatted message
func (m Message) Write(w io.Writer) {
	fmt.Fprint(w, m.String())
}

// FixtureNotFound reports an identifier that resolved to no fixture
func FixtureNotFound(problem string, suggestions []string, noColor bool) Message {
	return Message{
		Level:       LevelError,
		Context:     "fixture not found",
		Problem:     problem,
		Suggestions: suggestions,
		Help: []string{
			"See all fixtures: conduit fixtures list",
			"Get help: conduit fixtures --help",
		},
		NoColor: noColor,
	}
}

// ConfigError reports an invalid or incomplete configuration
func ConfigError(problem string, noColor bool) Message {
	return Message{
		Level:   LevelError,
		Context: "configuration error",
		Problem: problem,
		Help: []string{
			"View config: cat conduit.yml",
			"Get help: conduit --help",
		},
		NoColor: noColor,
	}
}

// Warning reports a non fatal problem
func Warning(problem string, noColor bool) Message {
	return Message{Level: LevelWarning, Problem: problem, NoColor: noColor}
}

// FormatSuccess formats a success line
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success line
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}
