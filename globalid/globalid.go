// Package globalid encodes a (kind, local key) pair into a single opaque
// identifier and back.
//
// An id is the padded standard base64 encoding of "kind:localKey". A kind
// follows the GraphQL name grammar and so never contains the separator; the
// local key is everything after the first separator and may contain it.
package globalid

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const separator = ":"

var (
	// ErrMalformed is returned by Decode when the id does not decode to a
	// valid (kind, local key) pair.
	ErrMalformed = errors.New("malformed id")

	// ErrInvalidKind is returned by Encode when the kind is not a valid name.
	ErrInvalidKind = errors.New("invalid kind")

	// ErrEmptyKey is returned by Encode when the local key is empty.
	ErrEmptyKey = errors.New("empty local key")
)

var kindPattern = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

var encoding = base64.StdEncoding.Strict()

// ValidKind reports whether kind can be used as the kind part of an id.
func ValidKind(kind string) bool {
	return kindPattern.MatchString(kind)
}

// Encode returns the opaque id for the pair.
func Encode(kind, localKey string) (string, error) {
	if !ValidKind(kind) {
		return "", errors.Wrapf(ErrInvalidKind, "kind %q", kind)
	}
	if localKey == "" {
		return "", errors.Wrapf(ErrEmptyKey, "kind %q", kind)
	}

	return encoding.EncodeToString([]byte(kind + separator + localKey)), nil
}

// MustEncode is like Encode but panics on invalid input. It is meant for
// fixtures and seed data.
func MustEncode(kind, localKey string) string {
	id, err := Encode(kind, localKey)
	if err != nil {
		panic(err)
	}
	return id
}

// Decode splits an id produced by Encode back into its kind and local key.
func Decode(id string) (kind, localKey string, err error) {
	if id == "" {
		return "", "", errors.Wrap(ErrMalformed, "empty id")
	}

	raw, err := encoding.DecodeString(id)
	if err != nil {
		return "", "", errors.Wrapf(ErrMalformed, "%q is not base64", id)
	}

	kind, localKey, ok := strings.Cut(string(raw), separator)
	if !ok {
		return "", "", errors.Wrapf(ErrMalformed, "%q has no kind separator", id)
	}
	if !ValidKind(kind) {
		return "", "", errors.Wrapf(ErrMalformed, "%q has invalid kind %q", id, kind)
	}
	if localKey == "" {
		return "", "", errors.Wrapf(ErrMalformed, "%q has an empty local key", id)
	}

	return kind, localKey, nil
}
