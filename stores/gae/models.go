//go:build !wasm
// +build !wasm

package gae

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/datastore"

	av "github.com/panyam/authview"
)

// Kind constants for Datastore entities
const (
	KindProfile = "Profile"
)

// ProfileEntity is the Datastore entity for profiles, keyed by identity id
type ProfileEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Username  string         `datastore:"username"`
	Email     string         `datastore:"email"`
	Extra     []byte         `datastore:"extra,noindex"` // JSON encoded
	CreatedAt time.Time      `datastore:"created_at"`
	UpdatedAt time.Time      `datastore:"updated_at"`
}

func (e *ProfileEntity) ToProfile() *av.Profile {
	var extra map[string]any
	if e.Extra != nil {
		json.Unmarshal(e.Extra, &extra)
	}
	return &av.Profile{
		ID:        e.Key.Name,
		Username:  e.Username,
		Email:     e.Email,
		Extra:     extra,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func ProfileToEntity(p *av.Profile, key *datastore.Key) *ProfileEntity {
	var extra []byte
	if p.Extra != nil {
		extra, _ = json.Marshal(p.Extra)
	}
	return &ProfileEntity{
		Key:       key,
		Username:  p.Username,
		Email:     p.Email,
		Extra:     extra,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
