// Package cli builds the concierge runtime from configuration and drives the
// interactive chat and indexing commands.
package cli
