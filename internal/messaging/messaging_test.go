// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package messaging_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaocondominio/portaria/internal/messaging"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"mobile_with_ddd", "11987654321", "5511987654321"},
		{"landline_with_ddd", "1133334444", "551133334444"},
		{"already_international", "5511987654321", "5511987654321"},
		{"formatted", "(11) 98765-4321", "5511987654321"},
		{"plus_prefix", "+55 11 98765-4321", "5511987654321"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, messaging.NormalizePhone(tt.input))
		})
	}
}

func TestSendReceipt(t *testing.T) {
	t.Parallel()

	var captured struct {
		path    string
		apiKey  string
		payload map[string]any
	}

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		captured.path = request.URL.Path
		captured.apiKey = request.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(request.Body).Decode(&captured.payload))

		_ = json.NewEncoder(writer).Encode(map[string]any{
			"key": map[string]any{"id": "MSG-123"},
		})
	}))
	defer server.Close()

	client := messaging.NewClient(server.URL, "condo-1", "secret-key")

	messageID, err := client.SendReceipt(context.Background(),
		"11987654321", "https://portaria.example/r/abc", "comprovante.pdf", "Comprovante de visita")
	require.NoError(t, err)

	assert.Equal(t, "MSG-123", messageID)
	assert.Equal(t, "/message/sendMedia/condo-1", captured.path)
	assert.Equal(t, "secret-key", captured.apiKey)
	assert.Equal(t, "5511987654321", captured.payload["number"])
	assert.Equal(t, "document", captured.payload["mediatype"])
	assert.Equal(t, "comprovante.pdf", captured.payload["fileName"])
}

func TestSendMessageGatewayError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := messaging.NewClient(server.URL, "condo-1", "secret-key")

	_, err := client.SendMessage(context.Background(), "11987654321", "ola")
	assert.Error(t, err)
}

func TestUnconfiguredClient(t *testing.T) {
	t.Parallel()

	client := messaging.NewClient("", "", "")
	assert.False(t, client.Enabled())

	_, err := client.SendMessage(context.Background(), "11987654321", "ola")
	assert.Error(t, err)
}
