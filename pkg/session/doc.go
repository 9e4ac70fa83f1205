/*
Package session serialises the turns of one conversation and persists its state.

A Manager pairs a ports.StateStore with reference-counted in-process locks and, when
several assistant replicas share a store, an optional ports.DistributedLocker.
*/
package session
