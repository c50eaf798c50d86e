// Package resources provides types for representing and interacting with ACME
// protocol resources: accounts, orders, authorizations, challenges, and the
// RFC 7807 problem documents the server uses to report errors.
package resources

import "crypto"

// Account holds information related to a single ACME Account resource. If the
// account has an empty ID it has not yet been created server-side.
//
// The ID field holds the server assigned Account URL, used as the JWS KeyID
// for authenticating ACME requests once the account exists.
type Account struct {
	// The server assigned Account URL. Used as the JWS KeyID once non-empty.
	ID string
	// If not nil, a slice of one or more "mailto:" Contact addresses.
	Contact []string
	// The private key used for the ACME account's keypair.
	PrivateKey crypto.Signer
	// If not nil, a slice of URLs for Order resources the Account created.
	Orders []string
}

// String returns the Account's ID or an empty string if it has not been
// created with the ACME server.
func (a Account) String() string {
	return a.ID
}

