// Command seed populates the store with demo identities and friendships.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"rendez/internal/calendar"
	"rendez/internal/config"
	"rendez/internal/directory"
	"rendez/internal/kv"
	"rendez/internal/repository"
	"rendez/internal/seed"
	"rendez/internal/service"
)

func main() {
	identities := flag.Int("identities", 10, "number of demo identities to create")
	friendships := flag.Int("friendships", 4, "number of friendships to establish")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := kv.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to store: %v", err)
	}

	registry := directory.NewRegistry(store)
	friendRepo := repository.NewFriendRepository(store)
	svc := service.NewFriendService(friendRepo, registry, calendar.NewHTTPGateway(cfg.CalendarBaseURL))

	created, err := seed.Run(ctx, registry, svc, seed.Options{
		Identities:  *identities,
		Friendships: *friendships,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d identities", len(created))
	for _, identity := range created {
		log.Printf("  %s  %s", identity.ID, identity.Email)
	}
}
