// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package unit_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/unit"
)

const directoryV1 = `[
	{
		"id": "condo-1",
		"name": "Residencial Jardim",
		"units": [
			{
				"code": "Bloco A - 101",
				"owners": [
					{"name": "Ana Souza", "phones": ["(11) 98765-4321"]}
				]
			}
		]
	}
]`

const directoryV2 = `[
	{
		"id": "condo-1",
		"name": "Residencial Jardim",
		"units": [
			{
				"code": "Bloco A - 102",
				"owners": [
					{"name": "Bruno Lima", "phones": ["11911112222"]}
				]
			}
		]
	}
]`

func writeDirectory(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFindByPhone(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "condominios.json")
	writeDirectory(t, path, directoryV1)

	directory := unit.NewDirectory(path)

	// Formatted national number resolves via normalization.
	matches, err := directory.FindByPhone("", "+55 11 98765-4321")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Bloco A - 101", matches[0].UnitCode)
	assert.Equal(t, "Ana Souza", matches[0].OwnerName)

	// Condominium scoping.
	_, err = directory.FindByPhone("condo-other", "11987654321")
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))

	// Unknown phone.
	_, err = directory.FindByPhone("", "11900000000")
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))
}

func TestLazyReloadOnFileChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "condominios.json")
	writeDirectory(t, path, directoryV1)

	directory := unit.NewDirectory(path)

	_, err := directory.FindByPhone("", "11987654321")
	require.NoError(t, err)
	firstGeneration := directory.Generation()

	// Rewrite the file with a future mtime so the change is visible even
	// on coarse-grained filesystems.
	writeDirectory(t, path, directoryV2)
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	_, err = directory.FindByPhone("", "11987654321")
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"), "old phone should be gone after reload")

	matches, err := directory.FindByPhone("", "11911112222")
	require.NoError(t, err)
	assert.Equal(t, "Bloco A - 102", matches[0].UnitCode)
	assert.Greater(t, directory.Generation(), firstGeneration)
}

func TestExplicitReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "condominios.json")
	writeDirectory(t, path, directoryV1)

	directory := unit.NewDirectory(path)
	require.NoError(t, directory.Reload())
	generation := directory.Generation()

	require.NoError(t, directory.Reload())
	assert.Greater(t, directory.Generation(), generation)
}

func TestServiceWithoutCache(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "condominios.json")
	writeDirectory(t, path, directoryV1)

	service := unit.NewService(unit.NewDirectory(path), nil)

	matches, err := service.FindByPhone(context.Background(), "condo-1", "11987654321")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Residencial Jardim", matches[0].CondominiumName)
}
