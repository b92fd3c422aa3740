package ptz

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// parseDigestChallenge splits a WWW-Authenticate digest header into its
// parameters.
func parseDigestChallenge(header string) (map[string]string, error) {
	const prefix = "Digest "
	if !strings.HasPrefix(header, prefix) {
		return nil, fmt.Errorf("not a digest challenge: %q", header)
	}

	params := make(map[string]string)
	for _, part := range strings.Split(header[len(prefix):], ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		params[kv[0]] = strings.Trim(kv[1], `"`)
	}

	if params["realm"] == "" || params["nonce"] == "" {
		return nil, fmt.Errorf("incomplete digest challenge: %q", header)
	}
	return params, nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func newCnonce() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "0a4f113b"
	}
	return hex.EncodeToString(b)
}

// buildDigestAuthorization answers a digest challenge for the given method
// and URI. Supports the plain RFC 2069 form and qop="auth"; cameras in the
// field speak nothing fancier.
func buildDigestAuthorization(challenge, method, uri, username, password string) (string, error) {
	params, err := parseDigestChallenge(challenge)
	if err != nil {
		return "", err
	}

	realm := params["realm"]
	nonce := params["nonce"]

	ha1 := md5Hex(fmt.Sprintf("%s:%s:%s", username, realm, password))
	ha2 := md5Hex(fmt.Sprintf("%s:%s", method, uri))

	var response string
	var qopFields string
	if strings.Contains(params["qop"], "auth") {
		cnonce := newCnonce()
		nc := "00000001"
		response = md5Hex(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, nonce, nc, cnonce, "auth", ha2))
		qopFields = fmt.Sprintf(`, qop=auth, nc=%s, cnonce="%s"`, nc, cnonce)
	} else {
		response = md5Hex(fmt.Sprintf("%s:%s:%s", ha1, nonce, ha2))
	}

	auth := fmt.Sprintf(`Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
		username, realm, nonce, uri, response)
	auth += qopFields
	if opaque := params["opaque"]; opaque != "" {
		auth += fmt.Sprintf(`, opaque="%s"`, opaque)
	}
	return auth, nil
}
