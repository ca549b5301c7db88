// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package messaging sends WhatsApp notifications through the condominium's
messaging gateway.

The gateway exposes one instance per condominium; this client posts JSON
to its sendText/sendMedia endpoints. All callers treat delivery as
fire-and-forget: failures are logged by the caller and never fail the
triggering request.
*/
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// brazilCountryCode prefixes national numbers that arrive without one.
const brazilCountryCode = "55"

const requestTimeout = 10 * time.Second

// Client talks to the messaging gateway.
type Client struct {
	httpClient *http.Client
	baseURL    string
	instance   string
	apiKey     string
}

// NewClient constructs a gateway client.
//
// # Parameters
//   - baseURL: Gateway root, e.g. "https://gateway.example.com".
//   - instance: The condominium's gateway instance name.
//   - apiKey: Credential sent in the "apikey" header.
func NewClient(baseURL, instance, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		instance:   instance,
		apiKey:     apiKey,
	}
}

// Enabled reports whether a gateway was configured.
func (client *Client) Enabled() bool { return client != nil && client.baseURL != "" }

// mediaMessage is the sendMedia request payload.
type mediaMessage struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	Media     string `json:"media"`
	FileName  string `json:"fileName"`
	Caption   string `json:"caption,omitempty"`
}

// textMessage is the sendText request payload.
type textMessage struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// gatewayResponse carries the delivery identity assigned by the gateway.
type gatewayResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
}

// SendReceipt delivers a document link (the visit receipt) to a phone.
//
// # Returns
//   - The gateway-assigned message id, or an error. Callers log errors
//     and move on; delivery is never load-bearing.
func (client *Client) SendReceipt(ctx context.Context, phone, link, fileName, caption string) (string, error) {
	payload := mediaMessage{
		Number:    NormalizePhone(phone),
		MediaType: "document",
		Media:     link,
		FileName:  fileName,
		Caption:   caption,
	}

	return client.post(ctx, "/message/sendMedia/"+client.instance, payload)
}

// SendMessage delivers a plain text message to a phone.
func (client *Client) SendMessage(ctx context.Context, phone, text string) (string, error) {
	payload := textMessage{
		Number: NormalizePhone(phone),
		Text:   text,
	}

	return client.post(ctx, "/message/sendText/"+client.instance, payload)
}

// post issues one JSON request and extracts the message id.
func (client *Client) post(ctx context.Context, path string, payload any) (string, error) {
	if !client.Enabled() {
		return "", fmt.Errorf("messaging: gateway not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("messaging: encode payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("messaging: build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("apikey", client.apiKey)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("messaging: gateway request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf("messaging: gateway returned status %d", response.StatusCode)
	}

	var decoded gatewayResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		// Delivery succeeded; only the id extraction failed.
		return "", nil
	}

	return decoded.Key.ID, nil
}

// NormalizePhone strips formatting and prefixes the Brazilian country
// code when the number arrives in national format.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	normalized := digits.String()
	// 10 (landline) or 11 (mobile) digits means DDD + number, no country code.
	if len(normalized) == 10 || len(normalized) == 11 {
		normalized = brazilCountryCode + normalized
	}

	return normalized
}
