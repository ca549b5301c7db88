// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package accesscode generates the short human-presentable codes that gate
staff use to look up an access authorization.

A code is the first eight hex characters of a random UUID, uppercased
(e.g. "A3F09C1D"). Codes are unique enough for lookup within a condominium
but are NOT guaranteed globally unique; collisions are an accepted risk of
the format and are resolved at lookup time by the caller.
*/
package accesscode

import (
	"strings"

	"github.com/google/uuid"
)

// Length is the number of characters in a generated access code.
const Length = 8

// New generates a new 8-character uppercase access code.
func New() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:Length])
}

// Normalize canonicalizes a user-supplied code for case-insensitive
// comparison against stored codes.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
