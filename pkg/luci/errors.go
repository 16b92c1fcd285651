package luci

import (
	"encoding/json"
	"errors"
	"strings"

	"clash-rulesync/internal/pkg/apperr"
)

// rpcError is the error member of a JSON-RPC response. Some LuCI builds send
// a bare string instead of an object.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *rpcError) Error() string {
	return e.Message
}

func (e *rpcError) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		e.Message = s
		return nil
	}
	type plain rpcError
	return json.Unmarshal(b, (*plain)(e))
}

func asRPCError(err error, target **rpcError) bool {
	return errors.As(err, target)
}

// encodingUnsupportedError triggers the shell downgrade. It never leaves the
// package.
type encodingUnsupportedError struct {
	cause *rpcError
}

func (e *encodingUnsupportedError) Error() string {
	return "base64 transfer unsupported: " + e.cause.Message
}

func isEncodingUnsupported(err error) bool {
	var target *encodingUnsupportedError
	return errors.As(err, &target)
}

// classifyFileError maps an fs endpoint failure. An error whose data mentions
// Base64 means the firmware lacks the encoded transfer.
func classifyFileError(op, fallback string, err error) error {
	var rpcErr *rpcError
	if !errors.As(err, &rpcErr) {
		return err
	}
	if strings.Contains(string(rpcErr.Data), "Base64") {
		return &encodingUnsupportedError{cause: rpcErr}
	}
	msg := rpcErr.Message
	if msg == "" {
		msg = fallback
	}
	return &apperr.TransportError{Op: op, Message: msg, Err: rpcErr}
}

func withDefaultMessage(err error, fallback string) error {
	var te *apperr.TransportError
	if errors.As(err, &te) && te.Message == "" {
		te.Message = fallback
	}
	return err
}
