package content

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/concierge/pkg/ports"
)

// ParseArticle reads a plain-text or markdown article.
// The first "# " heading becomes the title and a "url:" line the source URL; both
// lines are dropped from the body. Without a url line, fallbackURL is used.
func ParseArticle(r io.Reader, fallbackURL string) (ports.Document, error) {
	doc := ports.Document{URL: fallbackURL}
	var body strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case doc.Title == "" && strings.HasPrefix(trimmed, "# "):
			doc.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			continue
		case strings.HasPrefix(strings.ToLower(trimmed), "url:"):
			doc.URL = strings.TrimSpace(trimmed[len("url:"):])
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return ports.Document{}, fmt.Errorf("failed to read article: %w", err)
	}
	doc.Text = strings.TrimSpace(body.String())
	return doc, nil
}

// LoadDir reads every .md and .txt article below dir, in lexical order.
// Files without a url line get a file:// URL.
func LoadDir(dir string) ([]ports.Document, error) {
	var docs []ports.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".txt":
		default:
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		abs, _ := filepath.Abs(path)
		doc, err := ParseArticle(f, "file://"+filepath.ToSlash(abs))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if doc.Title == "" {
			doc.Title = strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load articles from %s: %w", dir, err)
	}
	return docs, nil
}
