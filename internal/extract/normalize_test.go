package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	out, err := Normalize("hello   \t world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestNormalizeCollapsesBlankLines(t *testing.T) {
	out, err := Normalize("para one\n\n\n\n\npara two")
	require.NoError(t, err)
	assert.Equal(t, "para one\n\npara two", out)
}

func TestNormalizeFlattensSingleLineBreaks(t *testing.T) {
	// Line breaks inside a paragraph become spaces; only blank-line
	// paragraph breaks survive.
	out, err := Normalize("line one\nline two\n\nnext para")
	require.NoError(t, err)
	assert.Equal(t, "line one line two\n\nnext para", out)
}

func TestNormalizeTrims(t *testing.T) {
	out, err := Normalize("\n\n  hello  \n\n")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestNormalizeEmpty(t *testing.T) {
	_, err := Normalize("")
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = Normalize("   \n\n\t  \n ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestNormalizeIdempotentUnderCap(t *testing.T) {
	in := "para one with words\n\npara two with words"
	once, err := Normalize(in)
	require.NoError(t, err)

	twice, err := Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeTruncates(t *testing.T) {
	raw := strings.Repeat("lorem ipsum ", MaxTextLength/12+100)

	out, err := Normalize(raw)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(out), MaxTextLength)
	assert.True(t, strings.HasSuffix(out, TruncationMarker), "expected truncation marker")

	// Re-normalizing truncated output is a no-op.
	again, err := Normalize(out)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}
