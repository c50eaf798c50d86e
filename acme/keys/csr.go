package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"

	"github.com/pkg/errors"
)

// GenerateCSR builds a PKCS#10 certificate signing request for the given
// names, signed by signer. The first name is used as the CSR's CommonName
// and all names (including the first) are included as DNS SubjectAltNames,
// matching what an ACME server expects to see reflected back from the
// identifiers in the finalized order. It returns both the raw DER bytes and
// their base64url encoding, the latter being what is sent in the finalize
// request's "csr" field.
func GenerateCSR(signer crypto.Signer, names []string) (der []byte, b64 string, err error) {
	if len(names) == 0 {
		return nil, "", errors.New("GenerateCSR: no names provided")
	}

	template := &x509.CertificateRequest{
		Subject: pkix.Name{
			CommonName: names[0],
		},
		DNSNames: names,
	}

	der, err = x509.CreateCertificateRequest(rand.Reader, template, signer)
	if err != nil {
		return nil, "", errors.Wrap(err, "creating certificate signing request")
	}
	return der, base64.RawURLEncoding.EncodeToString(der), nil
}
