/*
Package session implements session management and persistence orchestration.

The Manager is the tag store of the dialog engine: it serializes access to a
conversation's session (local ref-counted mutexes, optionally backed by a
distributed lock for multiple replicas) and always exposes tag counts as a
complete mapping over the vocabulary's tag universe.
*/
package session
