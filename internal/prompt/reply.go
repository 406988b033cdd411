package prompt

import (
	"regexp"
	"strings"
)

var blankRuns = regexp.MustCompile(`\n{2,}`)

// CleanReply is applied to every model reply before it is shown or stored:
// runs of newlines collapse to one and the result is trimmed.
func CleanReply(text string) string {
	return strings.TrimSpace(blankRuns.ReplaceAllString(text, "\n"))
}
