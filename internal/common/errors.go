// Package common defines the sentinel errors shared by the importer, the local
// store, the portal client and the sync orchestrator. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Row-level errors: a malformed export row is skipped, the file continues.
	ErrParse = errors.New("parse error")

	// Store-level errors: the local store is unavailable, the run aborts.
	ErrStorage = errors.New("storage error")

	// User-level errors: the portal rejected the login or the page lacks the
	// expected fields. The user's trips stay pending.
	ErrAuth = errors.New("authentication failed")

	// Entry-level errors: the portal rejected one submission.
	ErrSubmission = errors.New("submission failed")

	// Credential errors: the stored password could not be decrypted.
	ErrCodec = errors.New("credential codec error")

	// Lookup errors for a single canonical row.
	ErrNotFound = errors.New("not found")

	ErrNotImplemented = errors.New("not implemented")
)
