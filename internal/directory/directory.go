// Package directory resolves user identities by id or email.
package directory

import (
	"context"
	"strings"
	"time"

	"rendez/internal/kv"
	"rendez/internal/models"

	"github.com/google/uuid"
)

const identityPrefix = "identity:"

// Directory is the identity lookup surface consumed by the engine.
// Lookups return (nil, nil) when no identity resolves; callers decide
// whether absence is an error.
type Directory interface {
	FindByID(ctx context.Context, id string) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
}

// Registry is the full identity surface, including the write operations
// used by the HTTP layer and the seeder.
type Registry interface {
	Directory
	Create(ctx context.Context, email, name string) (*models.Identity, error)
	List(ctx context.Context) ([]models.Identity, error)
	Delete(ctx context.Context, id string) error
}

// kvRegistry stores identity records in the key-value store under
// identity:{id}.
type kvRegistry struct {
	store kv.Store
}

// NewRegistry returns a Registry persisting through the given store.
func NewRegistry(store kv.Store) Registry {
	return &kvRegistry{store: store}
}

func (r *kvRegistry) FindByID(ctx context.Context, id string) (*models.Identity, error) {
	var identity models.Identity
	found, err := kv.GetJSON(ctx, r.store, identityPrefix+id, &identity)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &identity, nil
}

// FindByEmail scans identity records for a matching email. Email is
// compared case-insensitively.
func (r *kvRegistry) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	email = strings.ToLower(email)
	keys, err := r.store.ListKeys(ctx, identityPrefix)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		var identity models.Identity
		found, err := kv.GetJSON(ctx, r.store, key, &identity)
		if err != nil {
			return nil, err
		}
		if found && strings.ToLower(identity.Email) == email {
			return &identity, nil
		}
	}
	return nil, nil
}

func (r *kvRegistry) Create(ctx context.Context, email, name string) (*models.Identity, error) {
	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	identity := &models.Identity{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := kv.SetJSON(ctx, r.store, identityPrefix+identity.ID, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

func (r *kvRegistry) List(ctx context.Context) ([]models.Identity, error) {
	keys, err := r.store.ListKeys(ctx, identityPrefix)
	if err != nil {
		return nil, err
	}

	identities := make([]models.Identity, 0, len(keys))
	for _, key := range keys {
		var identity models.Identity
		found, err := kv.GetJSON(ctx, r.store, key, &identity)
		if err != nil {
			return nil, err
		}
		if found {
			identities = append(identities, identity)
		}
	}
	return identities, nil
}

func (r *kvRegistry) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, identityPrefix+id)
}
