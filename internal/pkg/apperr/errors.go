package apperr

import (
	"errors"
	"fmt"
)

// ErrRuleExists reports an attempted duplicate add. It is an expected outcome,
// not a fault, and callers translate it into a dedicated message.
var ErrRuleExists = errors.New("RULE_EXISTS")

// ErrRuleNotFound reports a delete of a line that is not in the file.
var ErrRuleNotFound = errors.New("rule not found")

// AuthError is a rejected login. Message carries the remote text.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "login failed: " + e.Message
}

// TransportError is any remote or network failure: JSON-RPC error envelopes,
// HTTP non-2xx statuses, dial and decode failures.
type TransportError struct {
	Op      string
	Message string
	Status  int
	Err     error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
