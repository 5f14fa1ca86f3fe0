// Package errs provides types and support related to web error handling.
package errs

import (
	"errors"
	"net/http"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/state"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// FromLedger maps the ledger's sentinel errors to trusted errors with the
// matching status. Any other error is returned unchanged.
func FromLedger(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return NewTrusted(err, http.StatusNotFound)
	case errors.Is(err, database.ErrMiningAborted):
		return NewTrusted(err, http.StatusServiceUnavailable)
	case errors.Is(err, state.ErrChainInvalid):
		return NewTrusted(err, http.StatusConflict)
	}

	return err
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap provides access to the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}
