// Command seed-admin ensures the bootstrap admin exists in the allowlist.
// It is idempotent: an existing record is promoted to admin instead of
// duplicated, and a missing ADMIN_EMAIL makes it a no-op so deployments
// without a seed configured still start cleanly.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatehouse/gatehouse/internal/model"
	"github.com/gatehouse/gatehouse/internal/repository"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", os.Getenv("ADMIN_EMAIL"), "Admin email to seed")
		name        = flag.String("name", os.Getenv("ADMIN_NAME"), "Admin display name")
	)
	flag.Parse()

	if *email == "" {
		fmt.Println("ADMIN_EMAIL not set, skipping admin seed")
		return
	}

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repository.Migrate(ctx, *databaseURL); err != nil {
		fmt.Fprintln(os.Stderr, "run migrations:", err)
		os.Exit(1)
	}

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	normalized := model.NormalizeEmail(*email)

	existing, err := repo.GetUserByEmail(ctx, normalized)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			fmt.Printf("admin %s already exists\n", normalized)
			return
		}
		existing.Role = model.RoleAdmin
		if err := repo.UpdateUser(ctx, existing); err != nil {
			fmt.Fprintln(os.Stderr, "promote user:", err)
			os.Exit(1)
		}
		fmt.Printf("promoted %s to admin\n", normalized)
	case errors.Is(err, repository.ErrUserNotFound):
		user := &model.User{
			ID:        ulid.Make().String(),
			Email:     normalized,
			Role:      model.RoleAdmin,
			CreatedAt: time.Now().UTC(),
		}
		if *name != "" {
			user.Name = name
		}
		if err := repo.CreateUser(ctx, user); err != nil {
			fmt.Fprintln(os.Stderr, "create admin:", err)
			os.Exit(1)
		}
		fmt.Printf("created admin %s\n", normalized)
	default:
		fmt.Fprintln(os.Stderr, "look up user:", err)
		os.Exit(1)
	}
}
