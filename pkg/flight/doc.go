// Package flight holds the flight-search domain: the structured query extracted from a
// refined user message, request validation, dual-calendar date normalisation, the
// airport directory and the structured filter understood by record stores.
package flight
