// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package shorturl issues short-lived share links for the visitor
self-registration form.

A resident shares "https://<host>/s/AbC123xY" over WhatsApp; opening it
redirects to the registration form with the resident's unit pre-filled.
Links expire after seven days by default and can be deactivated earlier.
*/
package shorturl

import (
	"crypto/rand"
	"fmt"
	"net/url"
	"time"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
)

// idAlphabet excludes nothing: links travel as text, never typed by hand.
const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// IDLength is the fixed short-link id size.
const IDLength = 8

// DefaultTTL is how long a link stays resolvable unless deactivated.
const DefaultTTL = 7 * 24 * time.Hour

// ErrLinkGone signals an expired or deactivated link (HTTP 410 flavored
// as a 400-class business error; the redirect handler maps it to 410).
var ErrLinkGone = apperr.Invalid("LINK_GONE", "This link has expired")

// ShortURL is one share-link record.
type ShortURL struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	UnitCode  string    `json:"unit_code"`
	Keyword   string    `json:"keyword,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// Usable reports whether the link still resolves at the given instant.
func (link *ShortURL) Usable(now time.Time) bool {
	return link.Active && now.Before(link.ExpiresAt)
}

// FormURL renders the registration-form redirect target.
func (link *ShortURL) FormURL(base string) string {
	query := url.Values{}
	query.Set("nome", link.Name)
	query.Set("telefone", link.Phone)
	query.Set("unidade", link.UnitCode)
	if link.Keyword != "" {
		query.Set("palavra", link.Keyword)
	}
	return base + "?" + query.Encode()
}

// NewID mints a random 8-character alphanumeric link id.
func NewID() (string, error) {
	buf := make([]byte, IDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("shorturl: entropy read failed: %w", err)
	}

	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf), nil
}
