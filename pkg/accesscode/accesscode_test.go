// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package accesscode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gestaocondominio/portaria/pkg/accesscode"
)

/*
TestNew_Format checks the shape of generated access codes.
*/
func TestNew_Format(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := accesscode.New()

		assert.Len(t, code, accesscode.Length)
		for _, r := range code {
			isHexUpper := (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F')
			assert.True(t, isHexUpper, "unexpected character %q in code %q", r, code)
		}
	}
}

/*
TestNormalize verifies case-insensitive canonicalization.
*/
func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "a3f09c1d", "A3F09C1D"},
		{"mixed_case", "a3F09c1D", "A3F09C1D"},
		{"surrounding_whitespace", "  A3F09C1D ", "A3F09C1D"},
		{"already_canonical", "A3F09C1D", "A3F09C1D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, accesscode.Normalize(tt.input))
		})
	}
}
