package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_PlainText(t *testing.T) {
	text, err := Text("notes.txt", []byte("  hello world  \n"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestText_EmptyPlainText(t *testing.T) {
	text, err := Text("empty.txt", nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestText_EmptyPDF(t *testing.T) {
	text, err := Text("empty.pdf", nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestText_HTMLStripsChrome(t *testing.T) {
	html := `<html><head><title>t</title></head><body>
		<nav>menu</nav>
		<script>var x = 1;</script>
		<p>First paragraph.</p>
		<p>Second   paragraph.</p>
		<footer>legal</footer>
	</body></html>`

	text, err := Text("page.html", []byte(html))
	require.NoError(t, err)
	assert.Equal(t, "First paragraph. Second paragraph.", text)
	assert.NotContains(t, text, "menu")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "legal")
}

func TestText_UnknownExtensionFallsBackToPlain(t *testing.T) {
	text, err := Text("data.md", []byte("# heading"))
	require.NoError(t, err)
	assert.Equal(t, "# heading", text)
}
