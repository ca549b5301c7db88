// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package filename_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gestaocondominio/portaria/pkg/filename"
)

/*
TestSanitize covers accent removal, extension handling, and fallbacks.
*/
func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "documento.pdf", "documento.pdf"},
		{"accents", "Comprovante João.pdf", "comprovante-joao.pdf"},
		{"uppercase_extension", "FOTO.JPG", "foto.jpg"},
		{"spaces_and_symbols", "rg (frente) #1.png", "rg-frente-1.png"},
		{"path_components_stripped", "../../etc/passwd", "passwd"},
		{"only_symbols", "!!!.pdf", "arquivo.pdf"},
		{"no_extension", "identidade", "identidade"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filename.Sanitize(tt.input))
		})
	}
}
