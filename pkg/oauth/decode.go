package oauth

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// DecodeParams turns a token-endpoint response into a flat parameter map.
// The body is parsed as JSON first (the documented format, though many
// servers mislabel the content type) and as a URL-encoded form second (the
// fallback for servers that return form-encoded token responses). The
// Content-Type header is deliberately ignored; real-world providers are
// inconsistent about it.
//
// A nil response is a TransportError, a failure status is a ServerError,
// and a body that parses as neither format is a ProtocolError labeled with
// the operation in label.
func DecodeParams(resp *http.Response, label string) (map[string]string, error) {
	if resp == nil {
		return nil, &TransportError{Err: errors.New("nil response")}
	}

	var body []byte
	if resp.Body != nil {
		var err error
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServerError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if params, ok := decodeJSONParams(body); ok {
		return params, nil
	}
	if params, ok := decodeFormParams(body); ok {
		return params, nil
	}

	return nil, &ProtocolError{Context: label, Body: string(body)}
}

// decodeJSONParams parses body as a JSON object or as a JSON array of
// [key, value] pairs, flattening scalar values to strings.
func decodeJSONParams(body []byte) (map[string]string, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}

	switch v := raw.(type) {
	case map[string]interface{}:
		params := make(map[string]string, len(v))
		for key, value := range v {
			if s, ok := stringifyJSONValue(value); ok {
				params[key] = s
			}
		}
		return params, true
	case []interface{}:
		params := make(map[string]string, len(v))
		for _, item := range v {
			pair, ok := item.([]interface{})
			if !ok || len(pair) != 2 {
				return nil, false
			}
			key, ok := pair[0].(string)
			if !ok {
				return nil, false
			}
			if s, ok := stringifyJSONValue(pair[1]); ok {
				params[key] = s
			}
		}
		return params, true
	default:
		// A bare scalar is valid JSON but not a parameter mapping.
		return nil, false
	}
}

// stringifyJSONValue flattens a scalar JSON value to its string form.
// Nested objects and arrays are skipped rather than failing the decode;
// token responses occasionally carry structured extension members.
func stringifyJSONValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// decodeFormParams parses body as a URL-encoded query string. It only
// succeeds when at least one pair has a non-empty value, so that arbitrary
// text (which url.ParseQuery happily treats as a single valueless key) is
// not mistaken for a form.
func decodeFormParams(body []byte) (map[string]string, bool) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, false
	}

	params := make(map[string]string, len(values))
	hasValue := false
	for key, vs := range values {
		if key == "" || len(vs) == 0 {
			continue
		}
		if vs[0] != "" {
			hasValue = true
		}
		params[key] = vs[0]
	}
	if !hasValue {
		return nil, false
	}
	return params, true
}
