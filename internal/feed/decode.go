package feed

import (
	"encoding/json"
	"errors"

	"github.com/janiskrasemann/albumfeed/internal/model"
)

// Feed is the decoded chart: its album records plus the metadata the Apple
// marketing feed sends alongside them.
type Feed struct {
	Title     string               `json:"title"`
	Country   string               `json:"country"`
	Updated   string               `json:"updated"`
	Copyright string               `json:"copyright"`
	Results   []model.AlbumsResult `json:"results"`
}

// Response is the top-level payload, {"feed": {...}}.
type Response struct {
	Feed *Feed `json:"feed"`
}

func (r *Response) validate() *DecodeError {
	if r.Feed == nil {
		return &DecodeError{Path: "feed", Found: "missing"}
	}
	if r.Feed.Results == nil {
		return &DecodeError{Path: "feed.results", Found: "missing"}
	}
	return nil
}

type validator interface {
	validate() *DecodeError
}

// decode parses data into a fresh T. Shape mismatches come back as
// KindDecoding with a *DecodeError, anything else as KindUnknownDecode.
func decode[T any](data []byte) (T, *APIError) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, classifyDecodeError(err)
	}
	if val, ok := any(&v).(validator); ok {
		if derr := val.validate(); derr != nil {
			var zero T
			return zero, &APIError{Kind: KindDecoding, Err: derr}
		}
	}
	return v, nil
}

func decodeFeed(data []byte) (Feed, *APIError) {
	resp, apiErr := decode[Response](data)
	if apiErr != nil {
		return Feed{}, apiErr
	}
	return *resp.Feed, nil
}

func classifyDecodeError(err error) *APIError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return &APIError{Kind: KindDecoding, Err: &DecodeError{
			Path:     typeErr.Field,
			Expected: typeErr.Type.String(),
			Found:    typeErr.Value,
			Offset:   typeErr.Offset,
			Err:      err,
		}}
	case errors.As(err, &syntaxErr):
		return &APIError{Kind: KindDecoding, Err: &DecodeError{Offset: syntaxErr.Offset, Err: err}}
	default:
		// Unmarshal into plain structs only yields the two types above; this
		// covers custom unmarshalers and decoder changes.
		return &APIError{Kind: KindUnknownDecode, Err: err}
	}
}
