// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package filename sanitizes user-supplied upload file names into safe
// ASCII identifiers.
//
// # Usage
//
// Uploaded documents and receipts keep their original name as display
// metadata; the sanitized form is what appears in receipt links and
// notification captions (e.g., "Comprovante João.pdf" → "comprovante-joao.pdf").
// The stored on-disk name is always a server-generated UUID and never derives
// from client input.
package filename

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches any sequence of non-alphanumeric, non-hyphen characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	// multiHyphen collapses multiple consecutive hyphens into one.
	multiHyphen = regexp.MustCompile(`-{2,}`)
)

// Sanitize converts an arbitrary Unicode file name into a safe ASCII one,
// preserving the (lowercased) extension.
//
// # Transformation Pipeline
//
// 1. Splits off the extension.
// 2. Normalizes the base to NFD and removes combining marks (é → e).
// 3. Lowercases and replaces anything non-alphanumeric with hyphens.
// 4. Collapses multiple hyphens and trims leading/trailing hyphens.
//
// An empty or fully-stripped base falls back to "arquivo".
func Sanitize(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, base)

	// 2. Lowercase
	result = strings.ToLower(result)

	// 3. Replace whitespace and special chars with hyphens
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	// 4. Clean up hyphenation
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if result == "" {
		result = "arquivo"
	}

	return result + ext
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
