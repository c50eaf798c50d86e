// Package net provides the HTTP transport used to talk to an ACME server:
// GET/POST requests with full header and body capture.
package net

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
)

const (
	version       = "0.1.0"
	userAgentBase = "uacme"
	locale        = "en-us"

	defaultTimeout = 30 * time.Second
)

// Client performs HTTP requests against an ACME server, capturing the
// response headers and body needed by the protocol layer above it.
type Client struct {
	httpClient *http.Client
}

// New builds a Client. If customCABundle is non-empty it names a file of PEM
// encoded CA certificates to trust instead of the system roots (used to trust
// a local ACME test server's certificate).
func New(customCABundle string) (*Client, error) {
	var caBundle *x509.CertPool
	if customCABundle != "" {
		pemBundle, err := os.ReadFile(customCABundle)
		if err != nil {
			return nil, errors.Wrapf(err, "reading CA bundle %q", customCABundle)
		}
		caBundle = x509.NewCertPool()
		if !caBundle.AppendCertsFromPEM(pemBundle) {
			return nil, errors.Errorf("no PEM certificates found in %q", customCABundle)
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					RootCAs: caBundle,
				},
			},
		},
	}, nil
}

// Response holds the result of a single HTTP round-trip.
type Response struct {
	StatusCode  int
	Header      http.Header
	Body        []byte
	ContentType string
}

// Do performs req, setting the User-Agent and Accept-Language headers, and
// captures the full response body into a Response.
func (c *Client) Do(req *http.Request) (*Response, error) {
	ua := fmt.Sprintf("%s/%s (%s; %s)", userAgentBase, version, runtime.GOOS, runtime.GOARCH)
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Language", locale)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting %s %s", req.Method, req.URL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Get issues an HTTP GET to url.
func (c *Client) Get(url string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post issues an HTTP POST to url with the given JWS body and the
// application/jose+json Content-Type required by RFC 8555.
func (c *Client) Post(url string, body []byte) (*Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/jose+json")
	return c.Do(req)
}
