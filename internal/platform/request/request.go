// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gestaocondominio/portaria/internal/platform/constants"
	"github.com/gestaocondominio/portaria/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
ID retrieves a named URL parameter (UUID/code) from the request.
*/
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Query retrieves a query-string value, trimmed.
*/
func Query(request *http.Request, name string) string {
	return strings.TrimSpace(request.URL.Query().Get(name))
}

/*
QueryBool retrieves a boolean query-string flag. Absent or unparsable
values yield the fallback.
*/
func QueryBool(request *http.Request, name string, fallback bool) bool {
	raw := Query(request, name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

/*
Actor extracts the acting user identity from the X-Actor-Id header.

The identity is supplied by the trusted frontend proxy and recorded as
audit metadata on movement and cancellation entries. When the header is
absent the given fallback (resident or gate default) is used instead.
*/
func Actor(request *http.Request, fallback string) string {
	if actor := strings.TrimSpace(request.Header.Get(constants.HeaderActorID)); actor != "" {
		return actor
	}
	return fallback
}
