// Package testutil provides shared constants for tests across go-courier.
// These constants eliminate repeated string literals in test files and ensure consistency.
package testutil

// Test Error Messages
//
// These constants define common error messages used in test assertions.
// Using constants prevents typos and enables IDE-assisted refactoring.

const (
	// TestError is a generic error message for test error scenarios.
	// Used across the httpclient and logger test files.
	TestError = "test error"

	// TestConnectionRefused is the common network error message for connection failures.
	// Used in transport failure tests in the httpclient package.
	TestConnectionRefused = "connection refused"
)
