// Package content prepares travel articles for indexing: it reads article files and
// splits their text into overlapping chunks sized for embedding.
package content
