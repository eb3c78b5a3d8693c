package htmltext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripTags_RemovesMarkupAndUnescapes(t *testing.T) {
	got := StripTags("<p>Ham &amp; eggs</p><p>again</p>")

	require.Equal(t, "Ham & eggsagain", got)
}

func TestStripTags_CollapsesWhitespace(t *testing.T) {
	got := StripTags("<div>  spaced\n\nout  </div>")

	require.Equal(t, "spaced out", got)
}

func TestExtractText_TagsBecomeWordBoundaries(t *testing.T) {
	got := ExtractText("<p>Hello</p><p>World</p>")

	require.Equal(t, "Hello World", got)
}

func TestExtractText_KeepsEntitiesEscaped(t *testing.T) {
	got := ExtractText("<p>Ham &amp; eggs</p>")

	require.Equal(t, "Ham &amp; eggs", got)
}

func TestTruncate_ShortValueUntouched(t *testing.T) {
	require.Equal(t, "short", Truncate("short", 10))
}

func TestTruncate_LongValueGetsEllipsis(t *testing.T) {
	got := Truncate("abcdefghij", 8)

	require.Equal(t, "abcde...", got)
	require.LessOrEqual(t, len([]rune(got)), 8)
}

func TestTruncate_TrailingSpaceTrimmedBeforeEllipsis(t *testing.T) {
	got := Truncate("abcd fghij", 8)

	require.Equal(t, "abcd...", got)
}

func TestNormalizeExcerpt_UnderLimitUnchanged(t *testing.T) {
	require.Equal(t, "tidy text", NormalizeExcerpt("  tidy\n text ", 50))
}

func TestNormalizeExcerpt_OverLimitAppendsEllipsisAfterCut(t *testing.T) {
	got := NormalizeExcerpt("abcdefghij", 6)

	require.Equal(t, "abcdef...", got)
}

func TestNormalizeExcerpt_NoDoubleEllipsis(t *testing.T) {
	got := NormalizeExcerpt("abc...xyz", 6)

	require.Equal(t, "abc...", got)
}
