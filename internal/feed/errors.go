package feed

import (
	"fmt"
	"strings"
)

// Kind classifies an APIError.
type Kind int

const (
	KindNetworking Kind = iota + 1
	KindClient
	KindServer
	KindRequest
	KindInvalidResponse
	KindDecoding
	KindUnexpectedStatus
	KindUnknownDecode
	KindInvalidRequest
)

func (k Kind) String() string {
	switch k {
	case KindNetworking:
		return "networking error"
	case KindClient:
		return "client error"
	case KindServer:
		return "server error"
	case KindRequest:
		return "request error"
	case KindInvalidResponse:
		return "invalid response"
	case KindDecoding:
		return "decoding error"
	case KindUnexpectedStatus:
		return "unexpected status"
	case KindUnknownDecode:
		return "unknown decode failure"
	case KindInvalidRequest:
		return "invalid request"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. They match any APIError of the same Kind.
var (
	ErrNetworking       = &APIError{Kind: KindNetworking}
	ErrClient           = &APIError{Kind: KindClient}
	ErrServer           = &APIError{Kind: KindServer}
	ErrRequest          = &APIError{Kind: KindRequest}
	ErrInvalidResponse  = &APIError{Kind: KindInvalidResponse}
	ErrDecoding         = &APIError{Kind: KindDecoding}
	ErrUnexpectedStatus = &APIError{Kind: KindUnexpectedStatus}
	ErrUnknownDecode    = &APIError{Kind: KindUnknownDecode}
	ErrInvalidRequest   = &APIError{Kind: KindInvalidRequest}
)

// APIError is the only error type delivered to completion handlers.
type APIError struct {
	Kind Kind
	// StatusCode is set for KindClient, KindServer, KindRequest and KindUnexpectedStatus.
	StatusCode int
	Message    string
	// Err is the underlying cause: the transport error for KindNetworking,
	// a *DecodeError for KindDecoding.
	Err error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func networkingError(err error) *APIError {
	return &APIError{Kind: KindNetworking, Err: err}
}

func statusError(kind Kind, code int) *APIError {
	return &APIError{Kind: kind, StatusCode: code}
}

// RequestError builds the parameterized request error. The fetch path never
// produces it; it exists for callers layering their own checks on a Feed.
func RequestError(code int, message string) *APIError {
	return &APIError{Kind: KindRequest, StatusCode: code, Message: message}
}

func invalidResponse(message string) *APIError {
	return &APIError{Kind: KindInvalidResponse, Message: message}
}

func invalidRequest(rawURL string, err error) *APIError {
	return &APIError{Kind: KindInvalidRequest, Message: fmt.Sprintf("cannot use %q as feed URL", rawURL), Err: err}
}

// DecodeError describes where a payload diverged from the expected shape.
type DecodeError struct {
	// Path is the dotted JSON path of the offending field, e.g. "feed.results".
	Path string
	// Expected is the Go type the decoder wanted; empty for syntax errors.
	Expected string
	// Found is the JSON value kind that was present, "missing" for absent fields.
	Found string
	// Offset is the byte offset into the body, 0 when unknown.
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	switch {
	case e.Found == "missing":
		fmt.Fprintf(&b, "missing field %q", e.Path)
	case e.Expected != "":
		fmt.Fprintf(&b, "field %q: expected %s, found %s", e.Path, e.Expected, e.Found)
	default:
		b.WriteString("malformed JSON")
	}
	if e.Offset > 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if e.Err != nil && e.Found != "missing" && e.Expected == "" {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }
