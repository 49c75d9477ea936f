//go:build !wasm
// +build !wasm

package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	av "github.com/panyam/authview"
)

// JSONMap is a helper type for storing JSON maps in GORM
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// ProfileModel is the GORM model for profiles, keyed by identity id
type ProfileModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Username  string    `gorm:"size:64;index"`
	Email     string    `gorm:"size:255;index"`
	Extra     JSONMap   `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ProfileModel) TableName() string {
	return "profiles"
}

func (m *ProfileModel) ToProfile() *av.Profile {
	return &av.Profile{
		ID:        m.ID,
		Username:  m.Username,
		Email:     m.Email,
		Extra:     m.Extra,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ProfileToModel(p *av.Profile) *ProfileModel {
	return &ProfileModel{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		Extra:     JSONMap(p.Extra),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
