// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package unit resolves condominium units and owners from the registration
directory file.

The directory is a JSON file maintained by the administration outside this
service. It is loaded lazily and re-read whenever its modification time
changes, so an updated file is picked up without a restart; an explicit
Reload endpoint forces the re-read. Phone lookups are additionally cached
in Redis (read-through with TTL) because the gatehouse fires one on every
call it receives.
*/
package unit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gestaocondominio/portaria/internal/messaging"
	"github.com/gestaocondominio/portaria/internal/platform/apperr"
)

// Owner is one registered resident of a unit.
type Owner struct {
	Name   string   `json:"name"`
	Phones []string `json:"phones"`
}

// Unit is one residential unit inside a condominium.
type Unit struct {
	Code   string  `json:"code"`
	Block  string  `json:"block,omitempty"`
	Owners []Owner `json:"owners"`
}

// Condominium groups the units of one property.
type Condominium struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Units []Unit `json:"units"`
}

// Match is the result of a phone lookup.
type Match struct {
	CondominiumID   string `json:"condominium_id"`
	CondominiumName string `json:"condominium_name"`
	UnitCode        string `json:"unit_code"`
	OwnerName       string `json:"owner_name"`
}

// Directory is the in-memory view of the registration file.
//
// # Concurrency
//
// Reads take a shared lock; the reload path upgrades to exclusive. Stale
// reads during a concurrent reload are acceptable: the file changes a few
// times a month.
type Directory struct {
	path string

	mu           sync.RWMutex
	condominiums []Condominium
	phoneIndex   map[string][]Match // normalized phone -> matches
	loadedAt     time.Time
	fileModTime  time.Time
	generation   uint64
}

// NewDirectory points at the registration file without reading it yet;
// the first lookup triggers the initial load.
func NewDirectory(path string) *Directory {
	return &Directory{path: path}
}

// Reload forces a re-read of the registration file.
func (directory *Directory) Reload() error {
	return directory.load(true)
}

// Generation increments on every successful reload. Cache layers embed it
// in their keys so a reload implicitly drops every stale entry.
func (directory *Directory) Generation() uint64 {
	directory.mu.RLock()
	defer directory.mu.RUnlock()
	return directory.generation
}

// Condominiums returns the current directory content.
func (directory *Directory) Condominiums() ([]Condominium, error) {
	if err := directory.ensureFresh(); err != nil {
		return nil, err
	}

	directory.mu.RLock()
	defer directory.mu.RUnlock()
	return directory.condominiums, nil
}

// FindByPhone resolves a phone number to its unit(s). When condominiumID
// is empty the whole directory is searched.
//
// Returns [apperr.NotFound] when the phone is not registered.
func (directory *Directory) FindByPhone(condominiumID, phone string) ([]Match, error) {
	if err := directory.ensureFresh(); err != nil {
		return nil, err
	}

	normalized := messaging.NormalizePhone(phone)

	directory.mu.RLock()
	defer directory.mu.RUnlock()

	candidates := directory.phoneIndex[normalized]
	var matches []Match
	for _, match := range candidates {
		if condominiumID != "" && match.CondominiumID != condominiumID {
			continue
		}
		matches = append(matches, match)
	}

	if len(matches) == 0 {
		return nil, apperr.NotFound("Unit for phone")
	}
	return matches, nil
}

// ensureFresh lazily loads the file and re-reads it when its mtime moved.
func (directory *Directory) ensureFresh() error {
	info, err := os.Stat(directory.path)
	if err != nil {
		return apperr.Internal(fmt.Errorf("unit: stat directory file: %w", err))
	}

	directory.mu.RLock()
	fresh := !directory.loadedAt.IsZero() && info.ModTime().Equal(directory.fileModTime)
	directory.mu.RUnlock()

	if fresh {
		return nil
	}
	return directory.load(false)
}

// load reads and indexes the registration file.
func (directory *Directory) load(forced bool) error {
	info, err := os.Stat(directory.path)
	if err != nil {
		return apperr.Internal(fmt.Errorf("unit: stat directory file: %w", err))
	}

	directory.mu.Lock()
	defer directory.mu.Unlock()

	// Another goroutine may have loaded while we waited for the lock.
	if !forced && !directory.loadedAt.IsZero() && info.ModTime().Equal(directory.fileModTime) {
		return nil
	}

	raw, err := os.ReadFile(directory.path)
	if err != nil {
		return apperr.Internal(fmt.Errorf("unit: read directory file: %w", err))
	}

	var condominiums []Condominium
	if err := json.Unmarshal(raw, &condominiums); err != nil {
		return apperr.Internal(fmt.Errorf("unit: parse directory file: %w", err))
	}

	directory.condominiums = condominiums
	directory.phoneIndex = buildPhoneIndex(condominiums)
	directory.loadedAt = time.Now()
	directory.fileModTime = info.ModTime()
	directory.generation++

	return nil
}

// buildPhoneIndex flattens the directory into a phone lookup table.
func buildPhoneIndex(condominiums []Condominium) map[string][]Match {
	index := make(map[string][]Match)
	for _, condominium := range condominiums {
		for _, unit := range condominium.Units {
			for _, owner := range unit.Owners {
				for _, phone := range owner.Phones {
					normalized := messaging.NormalizePhone(phone)
					if normalized == "" {
						continue
					}
					index[normalized] = append(index[normalized], Match{
						CondominiumID:   condominium.ID,
						CondominiumName: condominium.Name,
						UnitCode:        unit.Code,
						OwnerName:       owner.Name,
					})
				}
			}
		}
	}
	return index
}
