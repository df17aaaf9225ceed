package kv

import (
	"context"
	"encoding/json"

	"rendez/internal/models"
)

// GetJSON reads key from the store and unmarshals it into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if absent.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

// SetJSON marshals v and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.Set(ctx, key, string(b))
}
