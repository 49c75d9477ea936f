//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	av "github.com/panyam/authview"
)

// AutoMigrate runs database migrations for all authview tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ProfileModel{})
}

// ProfileStore implements av.ProfileStore using GORM
type ProfileStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Create inserts a fresh profile record
func (s *ProfileStore) Create(ctx context.Context, profile *av.Profile) error {
	return s.db.WithContext(ctx).Create(ProfileToModel(profile)).Error
}

func (s *ProfileStore) Get(ctx context.Context, id string) (*av.Profile, error) {
	var model ProfileModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("profile not found: %s", id)
		}
		return nil, err
	}
	return model.ToProfile(), nil
}

// Update performs a read-modify-write inside a transaction so concurrent
// partial updates to different fields cannot clobber each other
func (s *ProfileStore) Update(ctx context.Context, id string, fields map[string]any) (*av.Profile, error) {
	var updated *av.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ProfileModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("profile not found: %s", id)
			}
			return err
		}

		profile := model.ToProfile()
		av.ApplyProfileFields(profile, fields)
		if err := tx.Save(ProfileToModel(profile)).Error; err != nil {
			return err
		}
		updated = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// FindByUsername looks up a profile by its username column
func (s *ProfileStore) FindByUsername(ctx context.Context, username string) (*av.Profile, error) {
	var model ProfileModel
	if err := s.db.WithContext(ctx).First(&model, "username = ?", username).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("profile not found for username: %s", username)
		}
		return nil, err
	}
	return model.ToProfile(), nil
}
