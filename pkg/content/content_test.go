package content_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/concierge/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_Paragraphs(t *testing.T) {
	chunks := content.Chunk("first\n\n\nsecond\n\n   \n\nthird", 100, 10)
	assert.Equal(t, []string{"first", "second", "third"}, chunks)
}

func TestChunk_LongParagraphOverlaps(t *testing.T) {
	text := strings.Repeat("a", 25)
	chunks := content.Chunk(text, 10, 4)

	require.Len(t, chunks, 4)
	for _, c := range chunks[:3] {
		assert.Len(t, c, 10)
	}
	assert.Len(t, chunks[3], 7)
}

func TestChunk_CountsRunes(t *testing.T) {
	text := strings.Repeat("س", 12)
	chunks := content.Chunk(text, 10, 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("س", 10), chunks[0])
}

func TestParseArticle(t *testing.T) {
	doc, err := content.ParseArticle(strings.NewReader("# Dubai Guide\nurl: https://blog.example/dubai\n\nBurj Khalifa is tall.\n"), "file:///x")
	require.NoError(t, err)
	assert.Equal(t, "Dubai Guide", doc.Title)
	assert.Equal(t, "https://blog.example/dubai", doc.URL)
	assert.Equal(t, "Burj Khalifa is tall.", doc.Text)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("# B\nbody b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("body a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.json"), []byte("{}"), 0o644))

	docs, err := content.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "a", docs[0].Title)
	assert.True(t, strings.HasPrefix(docs[0].URL, "file://"))
	assert.Equal(t, "B", docs[1].Title)
	assert.Equal(t, "body b", docs[1].Text)
}
