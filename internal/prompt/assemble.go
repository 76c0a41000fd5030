package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/letieu/reddit-profiler/internal/reddit"
)

const (
	// SystemPreamble frames every analysis around a single author.
	SystemPreamble = "All the following Reddit comments are from a single user. Focus your analysis on profiling this individual user based on their collective comments."

	LargeContextCeiling = 4_000_000
	SmallContextCeiling = 100_000

	TruncationMarker = "\n... (content truncated for API limits)"
)

// largeContextMarkers identify model generations with a long context window.
var largeContextMarkers = []string{"1.5", "2."}

// CeilingFor returns the character budget for the comment block sent to
// model. The budget counts characters, not tokens, so it is approximate.
func CeilingFor(model string) int {
	for _, m := range largeContextMarkers {
		if strings.Contains(model, m) {
			return LargeContextCeiling
		}
	}
	return SmallContextCeiling
}

// RenderComment formats a comment as "[sub] [created] (Score: n) body".
func RenderComment(c reddit.Comment) string {
	return fmt.Sprintf("[%s] [%s] (Score: %d) %s",
		c.Subreddit,
		strconv.FormatFloat(c.CreatedUTC, 'f', -1, 64),
		c.Score,
		c.Body,
	)
}

// RenderComments renders comments one per line, in input order.
func RenderComments(comments []reddit.Comment) string {
	lines := make([]string, len(comments))
	for i, c := range comments {
		lines[i] = RenderComment(c)
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts text to at most ceiling characters and appends
// TruncationMarker when anything was removed. It never splits a
// multi-byte character.
func Truncate(text string, ceiling int) (string, bool) {
	if len(text) <= ceiling {
		return text, false
	}

	n := 0
	for i := range text {
		if n == ceiling {
			return text[:i] + TruncationMarker, true
		}
		n++
	}
	return text, false
}

// Assemble builds the full prompt for one analysis request and reports
// whether the comment block was cut to the model's ceiling.
func Assemble(preamble, userPrompt string, comments []reddit.Comment, model string) (string, bool) {
	block, truncated := Truncate(RenderComments(comments), CeilingFor(model))
	return preamble + "\n\n" + userPrompt + "\n\nComments data:\n" + block, truncated
}
