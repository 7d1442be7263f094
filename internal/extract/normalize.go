package extract

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTextLength caps normalized output, truncation marker included.
	MaxTextLength = 1 << 20

	// TruncationMarker is appended to output that hit the length cap.
	TruncationMarker = "\n\n[content truncated]"
)

// ErrEmptyContent signals that extraction produced nothing usable: empty
// input, or input that collapses to nothing but whitespace.
var ErrEmptyContent = errors.New("no extractable text found")

var (
	paragraphSep = regexp.MustCompile(`(?:\r?\n[ \t]*){2,}`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

// Normalize collapses runs of blank lines into a single blank line and any
// other whitespace run into one space, then enforces the output length cap.
// Line breaks inside a paragraph are not preserved; only paragraph breaks
// survive. Already-normalized text under the cap passes through unchanged.
func Normalize(raw string) (string, error) {
	parts := paragraphSep.Split(raw, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(spaceRun.ReplaceAllString(p, " "))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	text := strings.Join(paragraphs, "\n\n")
	if text == "" {
		return "", ErrEmptyContent
	}

	if len(text) > MaxTextLength {
		text = truncate(text, MaxTextLength-len(TruncationMarker)) + TruncationMarker
	}
	return text, nil
}

// truncate cuts text to at most n bytes without splitting a rune and
// without leaving trailing whitespace at the cut.
func truncate(text string, n int) string {
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return strings.TrimRight(text[:n], " \n")
}
