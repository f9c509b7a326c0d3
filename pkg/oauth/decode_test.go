package oauth

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func newResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDecodeParams(t *testing.T) {
	t.Run("decodes JSON body", func(t *testing.T) {
		params, err := DecodeParams(newResponse(200, `{"access_token":"abc","expires_in":3600}`), "access_token")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params["access_token"] != "abc" {
			t.Errorf("expected access_token abc, got %q", params["access_token"])
		}
		if params["expires_in"] != "3600" {
			t.Errorf("expected expires_in 3600, got %q", params["expires_in"])
		}
	})

	t.Run("decodes form body", func(t *testing.T) {
		params, err := DecodeParams(newResponse(200, "access_token=abc&expires_in=3600"), "access_token")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params["access_token"] != "abc" {
			t.Errorf("expected access_token abc, got %q", params["access_token"])
		}
		if params["expires_in"] != "3600" {
			t.Errorf("expected expires_in 3600, got %q", params["expires_in"])
		}
	})

	t.Run("JSON and form bodies decode identically", func(t *testing.T) {
		fromJSON, err := DecodeParams(newResponse(200, `{"access_token":"abc","expires_in":3600}`), "x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		fromForm, err := DecodeParams(newResponse(200, "access_token=abc&expires_in=3600"), "x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fromJSON) != len(fromForm) {
			t.Fatalf("mappings differ in size: %v vs %v", fromJSON, fromForm)
		}
		for key, value := range fromJSON {
			if fromForm[key] != value {
				t.Errorf("key %q: JSON gave %q, form gave %q", key, value, fromForm[key])
			}
		}
	})

	t.Run("decodes JSON array of pairs", func(t *testing.T) {
		params, err := DecodeParams(newResponse(200, `[["access_token","abc"],["scope","read"]]`), "x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params["access_token"] != "abc" || params["scope"] != "read" {
			t.Errorf("unexpected mapping: %v", params)
		}
	})

	t.Run("stringifies booleans and skips nested values", func(t *testing.T) {
		params, err := DecodeParams(newResponse(200, `{"ok":true,"nested":{"a":1},"token":"x"}`), "x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params["ok"] != "true" {
			t.Errorf("expected ok=true, got %q", params["ok"])
		}
		if _, present := params["nested"]; present {
			t.Error("expected nested value to be skipped")
		}
	})

	t.Run("nil response is a transport error", func(t *testing.T) {
		_, err := DecodeParams(nil, "access_token")
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected TransportError, got %v", err)
		}
	})

	t.Run("failure status is a server error", func(t *testing.T) {
		_, err := DecodeParams(newResponse(503, "service unavailable"), "access_token")
		var serverErr *ServerError
		if !errors.As(err, &serverErr) {
			t.Fatalf("expected ServerError, got %v", err)
		}
		if serverErr.StatusCode != 503 {
			t.Errorf("expected status 503, got %d", serverErr.StatusCode)
		}
		if serverErr.Body != "service unavailable" {
			t.Errorf("expected body to be preserved, got %q", serverErr.Body)
		}
	})

	t.Run("unparseable body is a protocol error", func(t *testing.T) {
		_, err := DecodeParams(newResponse(200, "<html>not a token response</html>"), "access_token")
		var protocolErr *ProtocolError
		if !errors.As(err, &protocolErr) {
			t.Fatalf("expected ProtocolError, got %v", err)
		}
		if protocolErr.Context != "access_token" {
			t.Errorf("expected context access_token, got %q", protocolErr.Context)
		}
	})

	t.Run("protocol error truncates long bodies in its message", func(t *testing.T) {
		body := strings.Repeat("x", 1000)
		_, err := DecodeParams(newResponse(200, body), "access_token")
		if err == nil {
			t.Fatal("expected error")
		}
		if len(err.Error()) > maxErrorBodyLen+100 {
			t.Errorf("error message not truncated: %d chars", len(err.Error()))
		}
	})

	t.Run("empty body is a protocol error", func(t *testing.T) {
		_, err := DecodeParams(newResponse(200, ""), "refresh_token")
		var protocolErr *ProtocolError
		if !errors.As(err, &protocolErr) {
			t.Fatalf("expected ProtocolError, got %v", err)
		}
	})
}
