package decoder

import (
	"errors"
	"fmt"

	"github.com/wonny/stockdash/internal/contracts"
)

var (
	// ErrUnsupportedFormat is returned when the file name indicates neither CSV nor Excel
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrInvalidPayload is returned when the transport encoding cannot be decoded
	ErrInvalidPayload = errors.New("invalid upload payload")

	// ErrFileTooLarge is returned when the decoded file exceeds the upload limit
	ErrFileTooLarge = errors.New("file too large")
)

// Messages shown to the user in place of the table
const (
	msgProcessing  = "There was an error processing this file."
	msgUnsupported = "Unsupported file type: upload a CSV or Excel (.xlsx) file."
	msgTooLarge    = "This file is too large to upload."
	msgSchema      = "The file must contain Date, Volume, Adj Close, Stock and Exchange columns."
)

// DecodeError reports why one uploaded file could not become a dataset.
// Message is safe to display to the user; Err carries the cause.
type DecodeError struct {
	File    string
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.File, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(file string, err error) *DecodeError {
	msg := msgProcessing
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		msg = msgUnsupported
	case errors.Is(err, ErrFileTooLarge):
		msg = msgTooLarge
	case errors.Is(err, contracts.ErrSchemaMismatch):
		msg = msgSchema
	}
	return &DecodeError{File: file, Message: msg, Err: err}
}
