package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	portalauth "github.com/exagonbr/portal-auth"
)

// fileUserProvider serves user records from a JSON file loaded at startup.
// The real portal plugs its user persistence layer in here; the file
// provider keeps the daemon deployable on its own.
type fileUserProvider struct {
	mu     sync.RWMutex
	byMail map[string]portalauth.UserRecord
	byID   map[string]portalauth.UserRecord
}

type userFileEntry struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	InstitutionID string `json:"institutionId"`
	PasswordHash  string `json:"passwordHash"`
	Role          string `json:"role"`
	Active        bool   `json:"active"`
}

func loadUserProvider(path string) (*fileUserProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var entries []userFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	p := &fileUserProvider{
		byMail: make(map[string]portalauth.UserRecord, len(entries)),
		byID:   make(map[string]portalauth.UserRecord, len(entries)),
	}
	for _, e := range entries {
		rec := portalauth.UserRecord{
			UserID:        e.ID,
			Email:         e.Email,
			InstitutionID: e.InstitutionID,
			PasswordHash:  e.PasswordHash,
			Role:          e.Role,
			Active:        e.Active,
		}
		p.byMail[strings.ToLower(e.Email)] = rec
		p.byID[e.ID] = rec
	}
	return p, nil
}

var errNoSuchUser = errors.New("no such user")

func (p *fileUserProvider) GetUserByEmail(email string) (portalauth.UserRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.byMail[strings.ToLower(email)]
	if !ok {
		return portalauth.UserRecord{}, errNoSuchUser
	}
	return rec, nil
}

func (p *fileUserProvider) GetUserByID(userID string) (portalauth.UserRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.byID[userID]
	if !ok {
		return portalauth.UserRecord{}, errNoSuchUser
	}
	return rec, nil
}

// UpdatePasswordHash updates the in-memory record only; the file is the
// seed, not the source of truth for rotated hashes.
func (p *fileUserProvider) UpdatePasswordHash(userID, newHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.byID[userID]
	if !ok {
		return errNoSuchUser
	}
	rec.PasswordHash = newHash
	p.byID[userID] = rec
	p.byMail[strings.ToLower(rec.Email)] = rec
	return nil
}
