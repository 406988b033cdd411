package main

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette, matching the TUI styles in chat.go.
var (
	colorViolet = lipgloss.Color("#7D56F4")
	colorPink   = lipgloss.Color("#EE6FF8")
	colorCyan   = lipgloss.Color("#04D9FF")
	colorGold   = lipgloss.Color("#FFD700")
	colorGreen  = lipgloss.Color("#10B981")
	colorRed    = lipgloss.Color("#EF4444")
	colorGray   = lipgloss.Color("#626262")
	colorWhite  = lipgloss.Color("#FAFAFA")
)

var (
	cliTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorViolet)
	cliLabel     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	cliValue     = lipgloss.NewStyle().Foreground(colorWhite)
	cliHighlight = lipgloss.NewStyle().Bold(true).Foreground(colorGold)
	cliMuted     = lipgloss.NewStyle().Foreground(colorGray)
	cliBullet    = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
	cliCommand   = lipgloss.NewStyle().Bold(true).Foreground(colorViolet)
	cliInfo      = lipgloss.NewStyle().Foreground(colorCyan)
	cliWarning   = lipgloss.NewStyle().Foreground(colorGold)
	cliSuccess   = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	cliError     = lipgloss.NewStyle().Bold(true).Foreground(colorRed)

	cliBadgeSuccess = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000")).Background(colorGreen).Padding(0, 1)
	cliBadgeError   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Background(colorRed).Padding(0, 1)
)

type highlightRule struct {
	re    *regexp.Regexp
	style lipgloss.Style
}

// helpRules colour cobra's help text, applied in order.
var helpRules = []highlightRule{
	{regexp.MustCompile(`chatassist(?: [a-z][a-z-]*)*`), cliCommand},
	{regexp.MustCompile(`(?:^|\s)--?[a-zA-Z][-a-zA-Z0-9]*`), lipgloss.NewStyle().Foreground(colorCyan)},
	{regexp.MustCompile(`\b(?:model|assistant|prompt|session|ui|log)\.[a-z_]+\b`), cliHighlight},
	{regexp.MustCompile(`「[^」]*」`), lipgloss.NewStyle().Foreground(colorPink)},
	{regexp.MustCompile(`<[^>]+>`), lipgloss.NewStyle().Italic(true).Foreground(colorPink)},
}

var reSection = regexp.MustCompile(`^[A-Z][A-Za-z ]*:$`)

// ColorWriter highlights commands, flags, config keys and Japanese examples in help output.
type ColorWriter struct {
	w io.Writer
}

func NewColorWriter(w io.Writer) *ColorWriter {
	return &ColorWriter{w: w}
}

func (cw *ColorWriter) Write(p []byte) (int, error) {
	lines := bytes.Split(p, []byte("\n"))
	var out bytes.Buffer
	for i, line := range lines {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(highlightLine(string(line)))
	}
	if _, err := cw.w.Write(out.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func highlightLine(line string) string {
	if strings.Contains(line, "\x1b[") {
		return line
	}
	if reSection.MatchString(line) {
		return cliTitle.Render(line)
	}
	for _, r := range helpRules {
		line = r.re.ReplaceAllStringFunc(line, func(m string) string {
			// keep the separating space outside the escape codes
			if m[0] == ' ' || m[0] == '\t' {
				return m[:1] + r.style.Render(m[1:])
			}
			return r.style.Render(m)
		})
	}
	return line
}

func printTitle(emoji, title string) {
	fmt.Println()
	fmt.Println(cliTitle.Render(emoji + " " + title))
	fmt.Println(cliMuted.Render("─────────────────────────────────────────────"))
}

func printKeyValue(key, value string) {
	fmt.Printf("%s %s\n", cliLabel.Render(key+":"), cliValue.Render(value))
}

func printKeyValueHighlight(key, value string) {
	fmt.Printf("%s %s\n", cliLabel.Render(key+":"), cliHighlight.Render(value))
}

func printSuccess(message string) {
	fmt.Println(cliBadgeSuccess.Render("OK") + " " + cliSuccess.Render(message))
}

func printError(message string) {
	fmt.Println(cliBadgeError.Render("ERROR") + " " + cliError.Render(message))
}

func printInfo(message string) {
	fmt.Println(cliInfo.Render("ℹ " + message))
}

func printWarning(message string) {
	fmt.Println(cliWarning.Render("⚠ " + message))
}

func printBullet(text string) {
	fmt.Println(cliBullet.Render("•") + " " + cliValue.Render(text))
}

func printBulletWithMeta(text, meta string) {
	fmt.Printf("%s %s %s\n", cliBullet.Render("•"), cliValue.Render(text), cliMuted.Render("("+meta+")"))
}

func printCommand(prefix, cmd, suffix string) {
	fmt.Println(cliInfo.Render(prefix) + " " + cliCommand.Render(cmd) + " " + cliInfo.Render(suffix))
}

func printNewline() {
	fmt.Println()
}
