package resources

// Identifier represents a subject identifier that can be included in
// a certificate.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.4 and
// https://tools.ietf.org/html/rfc8555#section-9.7.7
//
// In a newOrder request a "dns" type Identifier's Value may carry a leading
// "*." wildcard prefix. In an Authorization the wildcard prefix is stripped
// from Value and the Authorization's Wildcard field is set to true instead.
type Identifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Authorization represents an Account's authorization to issue for a given
// identifier, established by completing one of its associated Challenges.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.4
type Authorization struct {
	// The server-assigned ID (a URL) identifying the Authorization. Populated
	// by the caller from the Order's authorizations list, not the JSON body.
	ID string `json:"-"`
	// The status of this authorization: "pending", "valid", "invalid",
	// "deactivated", "expired", or "revoked".
	Status string `json:"status"`
	// The identifier the account is authorized to represent.
	Identifier Identifier `json:"identifier"`
	// The challenges the client may fulfill to prove possession of the
	// identifier.
	Challenges []Challenge `json:"challenges"`
	// An RFC 3339 timestamp at which the Authorization is considered expired.
	Expires string `json:"expires,omitempty"`
	// True when this Authorization was created for a wildcard identifier.
	Wildcard bool `json:"wildcard,omitempty"`
}

// String returns the Authorization's ID URL.
func (a Authorization) String() string {
	return a.ID
}
