package access

import (
	"errors"
	"fmt"
)

var (
	// ErrOperation matches every failed statement, query or transaction.
	ErrOperation = errors.New("database operation failed")

	// ErrInit matches failures to create or patch the schema.
	ErrInit = errors.New("database initialization failed")

	// ErrTooManyRows is returned when a query exceeds its fetch size.
	ErrTooManyRows = errors.New("result exceeds fetch size")

	// ErrClosed is returned when the database is not open for queries.
	ErrClosed = errors.New("database is not open")
)

// OpError is a failure of a single statement, query or transaction against an
// otherwise healthy database. The driver error is kept as the cause.
type OpError struct {
	Op        string // execute, query, batch, transaction
	Statement string // SQL text or transaction name
	Err       error
}

func (e *OpError) Error() string {
	if e.Statement == "" {
		return e.Op + ": " + e.Err.Error()
	}

	return fmt.Sprintf("%s %q: %v", e.Op, abbreviate(e.Statement), e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrOperation) true.
func (e *OpError) Is(target error) bool { return target == ErrOperation }

// Wrap returns err as an *OpError unless it already is one.
func Wrap(op, statement string, err error) error {
	if err == nil {
		return nil
	}

	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}

	return &OpError{Op: op, Statement: statement, Err: err}
}

// InitError is a fatal failure while creating or patching the schema.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return "database init (" + e.Stage + "): " + e.Err.Error()
}

func (e *InitError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInit) true.
func (e *InitError) Is(target error) bool { return target == ErrInit }

func abbreviate(s string) string {
	if len(s) > 120 {
		return s[:117] + "..."
	}

	return s
}
