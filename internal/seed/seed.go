// Package seed provides helpers to create demo data for the application.
// These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"time"

	"rendez/internal/directory"
	"rendez/internal/models"
	"rendez/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Options controls how much demo data is generated.
type Options struct {
	Identities  int
	Friendships int
}

// Run creates demo identities and wires a few friendships between them by
// driving the engine's own request/accept flow.
func Run(ctx context.Context, registry directory.Registry, svc *service.FriendService, opts Options) ([]models.Identity, error) {
	gofakeit.Seed(time.Now().UnixNano())

	if opts.Identities < 2 {
		opts.Identities = 2
	}

	identities := make([]models.Identity, 0, opts.Identities)
	for i := 0; i < opts.Identities; i++ {
		email := fmt.Sprintf("%s_%d@%s", gofakeit.Username(), i, gofakeit.DomainName())
		identity, err := registry.Create(ctx, email, gofakeit.Name())
		if err != nil {
			return nil, err
		}
		identities = append(identities, *identity)
	}

	for i := 0; i < opts.Friendships && i+1 < len(identities); i++ {
		requester := identities[i]
		target := identities[i+1]

		result, err := svc.SendFriendRequest(ctx, requester.ID, target.Email)
		if err != nil {
			return nil, err
		}
		if result.AutoAccepted {
			continue
		}
		if _, err := svc.RespondToFriendRequest(ctx, target.ID, result.Request.ID, true); err != nil {
			return nil, err
		}
	}

	return identities, nil
}
