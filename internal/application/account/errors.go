package account

import "errors"

var (
	ErrMalformedDocument   = errors.New("malformed document")
	ErrUnrecognizedShape   = errors.New("unrecognized document shape")
	ErrNoValidRecords      = errors.New("no valid records")
	ErrEmptyBatch          = errors.New("empty batch")
	ErrBatchConsumed       = errors.New("batch already consumed")
	ErrInvalidImportSource = errors.New("invalid import source")
	ErrReadImportSource    = errors.New("failed to read import source")
	ErrUploadInProgress    = errors.New("upload already in progress")
	ErrStartUpload         = errors.New("failed to start upload")
	ErrInvalidUploadID     = errors.New("invalid upload id")
	ErrUploadNotFound      = errors.New("upload not found")
	ErrListAccounts        = errors.New("failed to list accounts")
	ErrInvalidAccountKey   = errors.New("invalid account key")
	ErrAccountNotFound     = errors.New("account not found")
	ErrDeleteAccount       = errors.New("failed to delete account")
	ErrDeleteAllAccounts   = errors.New("failed to delete all accounts")
)

// ParseError is returned for documents that cannot produce a batch.
// Kind is one of ErrMalformedDocument, ErrUnrecognizedShape or ErrNoValidRecords.
type ParseError struct {
	Kind  error
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Cause.Error()
}

func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newParseError(kind, cause error) *ParseError {
	return &ParseError{Kind: kind, Cause: cause}
}
