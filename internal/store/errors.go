// Package store defines the storage contract for the Telegram persistence
// layer. This file centralizes the error taxonomy shared by the orchestrator
// and both backends so callers can branch with errors.Is.
package store

import "errors"

var (
	// ErrNotConnected is returned when an operation is attempted against
	// a store whose backend handle is absent or closed. It is a normal
	// short-circuit result, not a programming error.
	ErrNotConnected = errors.New("store: not connected")

	// ErrNoUpdateReference is returned when a ledger row is submitted
	// with all five entity reference fields nil. It is raised before any
	// storage call.
	ErrNoUpdateReference = errors.New("store: telegram update references no entity")

	// ErrUnsupportedUpdate is returned when an inbound update carries no
	// payload this layer persists.
	ErrUnsupportedUpdate = errors.New("store: unsupported update type")

	// ErrEmptyChatScope is returned by SelectChats when all four chat
	// type scopes are disabled.
	ErrEmptyChatScope = errors.New("store: no chat types selected")

	// ErrUnknownTable is returned by the generic Update for a table name
	// outside the fixed logical set.
	ErrUnknownTable = errors.New("store: unknown table")

	// ErrNoFields is returned by the generic Update when the field set to
	// apply is empty.
	ErrNoFields = errors.New("store: no fields to update")
)
