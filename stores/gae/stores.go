//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"fmt"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	av "github.com/panyam/authview"
)

// ProfileStore implements av.ProfileStore using Google Cloud Datastore
type ProfileStore struct {
	client    *datastore.Client
	namespace string
}

// NewProfileStore creates a new Datastore-backed ProfileStore
func NewProfileStore(client *datastore.Client, namespace string) *ProfileStore {
	return &ProfileStore{client: client, namespace: namespace}
}

func (s *ProfileStore) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

// Create writes a fresh profile entity
func (s *ProfileStore) Create(ctx context.Context, profile *av.Profile) error {
	key := s.namespacedKey(KindProfile, profile.ID)
	_, err := s.client.Put(ctx, key, ProfileToEntity(profile, key))
	return err
}

func (s *ProfileStore) Get(ctx context.Context, id string) (*av.Profile, error) {
	key := s.namespacedKey(KindProfile, id)
	var entity ProfileEntity
	if err := s.client.Get(ctx, key, &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, fmt.Errorf("profile not found: %s", id)
		}
		return nil, err
	}
	entity.Key = key
	return entity.ToProfile(), nil
}

// Update performs the read-merge-write inside a Datastore transaction so
// concurrent partial updates serialize instead of clobbering each other
func (s *ProfileStore) Update(ctx context.Context, id string, fields map[string]any) (*av.Profile, error) {
	key := s.namespacedKey(KindProfile, id)
	var updated *av.Profile

	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var entity ProfileEntity
		if err := tx.Get(key, &entity); err != nil {
			if err == datastore.ErrNoSuchEntity {
				return fmt.Errorf("profile not found: %s", id)
			}
			return err
		}
		entity.Key = key

		profile := entity.ToProfile()
		av.ApplyProfileFields(profile, fields)
		if _, err := tx.Put(key, ProfileToEntity(profile, key)); err != nil {
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

// FindByUsername looks up a profile by its indexed username property
func (s *ProfileStore) FindByUsername(ctx context.Context, username string) (*av.Profile, error) {
	query := datastore.NewQuery(KindProfile).
		FilterField("username", "=", username).
		Limit(1)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	it := s.client.Run(ctx, query)
	var entity ProfileEntity
	key, err := it.Next(&entity)
	if err == iterator.Done {
		return nil, fmt.Errorf("profile not found for username: %s", username)
	}
	if err != nil {
		return nil, err
	}
	entity.Key = key
	return entity.ToProfile(), nil
}
