// Package errors provides the classified error primitives used across focusd.
//
// A ClassifiedError carries a category (config, storage, enforcement, ...), a severity
// and a retry strategy next to the usual message and cause. Errors are assembled with
// the fluent builder:
//
//	err := errors.StorageError("failed to save snapshot").
//		WithContext("backend", "diskv").
//		WithCause(writeErr).
//		Build()
//
// The HTTP and CLI adapters turn classified errors into status codes, exit codes and
// log records.
package errors
