package client

import (
	"encoding/json"
	"strings"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/pkg/errors"

	"github.com/cpu/uacme/acme/keys"
	"github.com/cpu/uacme/acme/resources"
	acmenet "github.com/cpu/uacme/net"
)

// fetch performs an unsigned GET against url, replacing the Session's last
// response state and adopting any Replay-Nonce header found. It returns the
// HTTP status code, or 0 on a transport-level failure.
func (s *Session) fetch(url string) (int, error) {
	resp, err := s.net.Get(url)
	if err != nil {
		return 0, newError(KindTransport, "fetch", err)
	}
	s.adopt(resp)
	return resp.StatusCode, nil
}

// signAndSend builds and POSTs a JWS over payload to url, using kid-form
// signing once the Session has an established account, or jwk-form
// otherwise. An empty payload produces a POST-as-GET request, used for
// fetching orders/authorizations/challenges/certificates per RFC 8555
// section 7.5.
func (s *Session) signAndSend(url string, payload []byte) (int, error) {
	if s.nonce == "" {
		return 0, newError(KindProtocol, "signAndSend", errors.New("need a nonce first"))
	}

	signer, err := s.joseSigner(url)
	if err != nil {
		return 0, newError(KindProtocol, "signAndSend", err)
	}

	jws, err := signer.Sign(payload)
	if err != nil {
		return 0, newError(KindProtocol, "signAndSend: sign", err)
	}
	// RFC 8555 requires the Flattened JSON Serialization; go-jose produces
	// it from FullSerialize whenever there is a single signer, which is
	// always the case here.
	serialized := jws.FullSerialize()

	resp, err := s.net.Post(url, []byte(serialized))
	if err != nil {
		return 0, newError(KindTransport, "signAndSend", err)
	}
	s.adopt(resp)
	return resp.StatusCode, nil
}

// joseSigner builds a jose.Signer for url using jwk-form signing when no kid
// is established yet, or kid-form signing otherwise. This is the only place
// the jwk/kid choice is made; the transition is monotonic because s.kid is
// only ever set, never cleared, by the account controller.
func (s *Session) joseSigner(url string) (jose.Signer, error) {
	alg, err := keys.SigAlgForSigner(s.AccountKey)
	if err != nil {
		return nil, err
	}

	opts := &jose.SignerOptions{NonceSource: s}
	opts = opts.WithHeader("url", url)

	var signingKey jose.SigningKey
	if s.kid != "" {
		signingKey = jose.SigningKey{
			Key: &jose.JSONWebKey{
				Key:       s.AccountKey,
				Algorithm: string(alg),
				KeyID:     s.kid,
			},
			Algorithm: alg,
		}
	} else {
		opts.EmbedJWK = true
		signingKey = jose.SigningKey{
			Key:       s.AccountKey,
			Algorithm: alg,
		}
	}

	return jose.NewSigner(signingKey, opts)
}

// postToEndpoint JSON-encodes payload (nil for a POST-as-GET empty body) and
// signs and sends it to the URL named by endpoint in the directory.
func (s *Session) postToEndpoint(endpoint string, payload any) (int, error) {
	url, ok := s.EndpointURL(endpoint)
	if !ok {
		return 0, newError(KindProtocol, "postToEndpoint",
			errors.Errorf("directory missing %q entry", endpoint))
	}
	return s.postToURL(url, payload)
}

// postToURL JSON-encodes payload (nil for a POST-as-GET empty body) and
// signs and sends it directly to url.
func (s *Session) postToURL(url string, payload any) (int, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, newError(KindProtocol, "postToURL: marshal payload", err)
		}
		body = encoded
	}
	return s.signAndSend(url, body)
}

// adopt overwrites the Session's last-response state from resp, and its
// nonce whenever resp carries a Replay-Nonce: the freshest nonce always
// wins, whether the response is a success or an error.
func (s *Session) adopt(resp *acmenet.Response) {
	if n := resp.Header.Get("Replay-Nonce"); n != "" {
		s.nonce = n
	}
	s.lastStatus = resp.StatusCode
	s.lastBody = resp.Body
	s.lastLocation = resp.Header.Get("Location")
	s.lastProblem = nil

	if !strings.Contains(resp.ContentType, "json") {
		return
	}

	if strings.Contains(resp.ContentType, "problem+json") {
		var p resources.Problem
		if err := json.Unmarshal(resp.Body, &p); err == nil {
			s.lastProblem = &p
		}
		return
	}

	// Some servers report ACME errors with a generic json Content-Type and
	// a top-level "error" object instead of problem+json.
	var withError struct {
		Error *resources.Problem `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &withError); err == nil && withError.Error != nil {
		s.lastProblem = withError.Error
	}
}

// LastProblem returns the problem document parsed from the most recent
// response, or nil if the response wasn't an ACME error.
func (s *Session) LastProblem() *resources.Problem {
	return s.lastProblem
}

// LastBody returns the raw body of the most recent response.
func (s *Session) LastBody() []byte {
	return s.lastBody
}
