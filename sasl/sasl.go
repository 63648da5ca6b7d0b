// Package sasl implements credential extraction for the SMTP AUTH
// mechanisms PLAIN (RFC 4616) and LOGIN.
package sasl

import (
	"bytes"
	"encoding/base64"
	"errors"
)

// Mechanism names as they appear in the AUTH command.
const (
	Plain = "PLAIN"
	Login = "LOGIN"
)

// Base64-encoded challenge strings for the LOGIN mechanism.
const (
	// ChallengeUsername is "Username:" encoded in base64.
	ChallengeUsername = "VXNlcm5hbWU6"
	// ChallengePassword is "Password:" encoded in base64.
	ChallengePassword = "UGFzc3dvcmQ6"
)

var (
	// ErrInvalidBase64 is returned when base64 decoding fails.
	ErrInvalidBase64 = errors.New("sasl: invalid base64 encoding")

	// ErrInvalidFormat is returned when the decoded authentication data
	// does not match the expected mechanism format.
	ErrInvalidFormat = errors.New("sasl: invalid authentication format")
)

// DecodePlain extracts the user and password from a base64-encoded
// PLAIN response of the form authzid NUL authcid NUL passwd. The
// authorization identity prefix is expected but ignored: the user is
// everything between the first and the last NUL, the password is
// everything after the last NUL.
func DecodePlain(response string) (user, password string, err error) {
	decoded, err := base64.StdEncoding.DecodeString(response)
	if err != nil {
		return "", "", ErrInvalidBase64
	}

	first := bytes.IndexByte(decoded, 0)
	last := bytes.LastIndexByte(decoded, 0)
	if first == -1 || first == last {
		return "", "", ErrInvalidFormat
	}

	return string(decoded[first+1 : last]), string(decoded[last+1:]), nil
}

// Decode decodes a base64-encoded response line, as exchanged by the
// LOGIN mechanism for the username and password.
func Decode(response string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(response)
	if err != nil {
		return "", ErrInvalidBase64
	}
	return string(decoded), nil
}
