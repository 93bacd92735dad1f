package auth

import (
	"strings"

	"github.com/Faith-tech-code/safemove/pkg/validation"
)

// IdentifierKind tags what shape a login identifier matched.
type IdentifierKind int

const (
	IdentifierInvalid IdentifierKind = iota
	IdentifierEmail
	IdentifierPhone
)

// Identifier is the parsed form of a login input. Lookup dispatch
// switches on Kind exhaustively; an Invalid identifier never falls
// through to a default lookup.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// ParseIdentifier classifies a raw login input as an email address, a
// phone number, or invalid.
func ParseIdentifier(raw string) Identifier {
	raw = strings.TrimSpace(raw)
	switch {
	case validation.ValidateEmail(raw):
		return Identifier{Kind: IdentifierEmail, Value: raw}
	case validation.ValidatePhone(raw):
		return Identifier{Kind: IdentifierPhone, Value: raw}
	default:
		return Identifier{Kind: IdentifierInvalid, Value: raw}
	}
}
