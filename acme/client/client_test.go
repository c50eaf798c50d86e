package client

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cpu/uacme/acme/keys"
)

// decodeJWSPayload extracts the JSON payload of a Flattened JSON
// Serialization JWS without verifying its signature, which is all the mock
// server below needs to branch its responses.
func decodeJWSPayload(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var flat struct {
		Payload string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(body, &flat))

	if flat.Payload == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(flat.Payload)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

// testDirectory starts a mock ACME server whose newNonce handler hands out
// a fresh, strictly increasing nonce on every call, and whose other
// endpoints are supplied by the caller.
func testDirectory(t *testing.T, mux *http.ServeMux, meta map[string]any) *httptest.Server {
	t.Helper()

	var nonceCounter atomic.Int64
	mux.HandleFunc("/new-nonce", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Replay-Nonce", fmt.Sprintf("nonce-%d", nonceCounter.Add(1)))
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)

	dir := map[string]any{
		"newNonce":   srv.URL + "/new-nonce",
		"newAccount": srv.URL + "/new-account",
		"newOrder":   srv.URL + "/new-order",
		"revokeCert": srv.URL + "/revoke-cert",
	}
	if meta != nil {
		dir["meta"] = meta
	}
	mux.HandleFunc("/directory", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dir)
	})

	t.Cleanup(srv.Close)
	return srv
}

func newTestSession(t *testing.T, srv *httptest.Server) *Session {
	t.Helper()

	signer, err := keys.NewSigner("ecdsa")
	require.NoError(t, err)

	session, err := NewSession(Config{
		DirectoryURL: srv.URL + "/directory",
		AccountKey:   signer,
		Log:          zerolog.Nop(),
	})
	require.NoError(t, err)
	require.NoError(t, session.Bootstrap())
	return session
}

// New account creation with no terms of service and no contact email.
func TestCreateAccountNewNoToS(t *testing.T) {
	mux := http.NewServeMux()
	var calls int

	mux.HandleFunc("/new-account", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Replay-Nonce", fmt.Sprintf("acct-nonce-%d", calls))
		payload := decodeJWSPayload(t, readBody(t, r))

		if payload["onlyReturnExisting"] == true {
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type":   "urn:ietf:params:acme:error:accountDoesNotExist",
				"detail": "no account exists for this key",
				"status": 400,
			})
			return
		}

		require.Equal(t, true, payload["termsOfServiceAgreed"])
		w.Header().Set("Location", "https://ca.example.com/acct/1")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "valid"})
	})

	srv := testDirectory(t, mux, nil)
	session := newTestSession(t, srv)

	require.NoError(t, session.CreateAccount("", nil))
	require.Equal(t, "https://ca.example.com/acct/1", session.KID())
	require.Equal(t, 2, calls)
}

// Creating an account that already exists must fail and surface the kid.
func TestCreateAccountAlreadyExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/new-account", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Replay-Nonce", "acct-nonce-1")
		w.Header().Set("Location", "https://ca.example.com/acct/42")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "valid"})
	})

	srv := testDirectory(t, mux, nil)
	session := newTestSession(t, srv)

	err := session.CreateAccount("", nil)
	require.Error(t, err)

	var acmeErr *Error
	require.ErrorAs(t, err, &acmeErr)
	require.Equal(t, KindInput, acmeErr.Kind)
	require.Equal(t, "https://ca.example.com/acct/42", session.KID())
}

// Every response's nonce is adopted, and it is always the freshest value
// seen so far.
func TestNonceIsAlwaysFreshest(t *testing.T) {
	mux := http.NewServeMux()
	var calls int
	mux.HandleFunc("/new-account", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Replay-Nonce", fmt.Sprintf("fresh-%d", calls))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "valid"})
	})

	srv := testDirectory(t, mux, nil)
	session := newTestSession(t, srv)

	for i := 0; i < 3; i++ {
		status, err := session.postToEndpoint(EndpointNewAccount, map[string]any{"onlyReturnExisting": true})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, fmt.Sprintf("fresh-%d", i+1), session.nonce)
	}
}

// Signing uses jwk form until kid is set, then kid form.
func TestSigningModeSwitchesFromJWKToKID(t *testing.T) {
	mux := http.NewServeMux()
	var sawKID, sawJWK bool
	mux.HandleFunc("/new-account", func(w http.ResponseWriter, r *http.Request) {
		var flat struct {
			Protected string `json:"protected"`
		}
		body := readBody(t, r)
		require.NoError(t, json.Unmarshal(body, &flat))
		raw, err := base64.RawURLEncoding.DecodeString(flat.Protected)
		require.NoError(t, err)
		var header map[string]any
		require.NoError(t, json.Unmarshal(raw, &header))

		if _, ok := header["kid"]; ok {
			sawKID = true
		} else if _, ok := header["jwk"]; ok {
			sawJWK = true
		}

		w.Header().Set("Replay-Nonce", "switch-nonce")
		w.Header().Set("Location", "https://ca.example.com/acct/7")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "valid"})
	})

	srv := testDirectory(t, mux, nil)
	session := newTestSession(t, srv)

	require.NoError(t, session.RetrieveAccount())
	require.True(t, sawJWK, "first request before kid is established must use jwk form")

	sawJWK = false
	_, err := session.postToEndpoint(EndpointNewAccount, map[string]any{"onlyReturnExisting": true})
	require.NoError(t, err)
	require.True(t, sawKID, "request after kid is established must use kid form")
	require.False(t, sawJWK, "kid-form requests must not also embed a jwk")
}

func readBody(t *testing.T, r *http.Request) []byte {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	return body
}
