package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prepwise/backend/models"
	"github.com/prepwise/backend/repository"

	"golang.org/x/crypto/bcrypt"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds development users, including the fixed dev identity
// every unauthenticated request resolves to. Idempotent.
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := []models.User{
		{
			ID:       DevUserID,
			Email:    "dev@example.com",
			Password: string(hashedPassword),
			FullName: "Dev User",
			Role:     "user",
		},
		{
			Email:    "test@example.com",
			Password: string(hashedPassword),
			FullName: "Test User",
			Role:     "user",
		},
		{
			Email:    "demo@example.com",
			Password: string(hashedPassword),
			FullName: "Demo User",
			Role:     "user",
		},
	}

	for _, user := range users {
		if err := s.seedUser(ctx, user); err != nil {
			slog.Error("Failed to seed user", "email", user.Email, "error", err)
		}
	}

	slog.Info("Database seeding completed successfully")
	return nil
}

// seedUser seeds a single user (idempotent)
func (s *DatabaseSeeder) seedUser(ctx context.Context, user models.User) error {
	existingUser, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("error checking user %s: %w", user.Email, err)
	}
	if existingUser != nil {
		slog.Info("User already exists, skipping", "email", user.Email)
		return nil
	}

	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	slog.Info("Created user", "email", user.Email)
	return nil
}
