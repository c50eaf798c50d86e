package resources

// Problem is an RFC 7807 problem document, the format an ACME server uses to
// report errors (https://tools.ietf.org/html/rfc8555#section-6.7). Type
// values are URNs under "urn:ietf:params:acme:error:*" for ACME-specific
// problems (e.g. "urn:ietf:params:acme:error:accountDoesNotExist").
type Problem struct {
	Type   string `json:"type"`
	Detail string `json:"detail,omitempty"`
	Status int    `json:"status,omitempty"`
}

// Is reports whether the Problem's Type matches the given ACME error URN.
func (p *Problem) Is(urn string) bool {
	return p != nil && p.Type == urn
}

// Well-known ACME problem type URNs referenced by the account and order
// controllers.
const (
	ErrAccountDoesNotExist = "urn:ietf:params:acme:error:accountDoesNotExist"
	ErrMalformed           = "urn:ietf:params:acme:error:malformed"
	ErrUnauthorized        = "urn:ietf:params:acme:error:unauthorized"
	ErrRateLimited         = "urn:ietf:params:acme:error:rateLimited"
	ErrBadNonce            = "urn:ietf:params:acme:error:badNonce"
)
