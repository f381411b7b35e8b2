package service

import (
	"context"
	"fmt"
	"time"

	"teamboard/app/services"
)

// RunCheck probes the configured backend and returns an exit code.
func RunCheck() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		fmt.Printf("Connection failed: %v\n", err)
		return 1
	}
	defer app.Close()

	if err := services.CheckConnection(ctx, app.Client); err != nil {
		fmt.Printf("Connection failed: %v\n", err)
		return 1
	}
	fmt.Printf("Connected to the %s backend\n", cfg.Backend)
	return 0
}

// RunSeed inserts the initial roster and welcome posts.
func RunSeed() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		return 1
	}
	ctx := context.Background()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		fmt.Printf("Failed to open %s backend: %v\n", cfg.Backend, err)
		return 1
	}
	defer app.Close()

	members, posts, err := services.Seed(ctx, app.Members, app.Posts)
	if err != nil {
		fmt.Printf("Seeding failed after %d members and %d posts: %v\n", members, posts, err)
		return 1
	}
	fmt.Printf("Seeded %d members and %d posts\n", members, posts)
	return 0
}
