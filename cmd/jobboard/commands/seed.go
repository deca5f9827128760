package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"jobboard/dto"
	"jobboard/errors"
	"jobboard/internal/middleware"
	"jobboard/internal/models"
	"jobboard/internal/repository"
	"jobboard/internal/services"
	"jobboard/logger"
)

// SeedCmd inserts demo data
var SeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo users and jobs for local development",
	Long: `Insert an employer, two job seekers and an admin, plus one approved and one pending job.

When a JWT secret is configured, a bearer token for each user is printed.`,
	RunE: runSeed,
}

var seedTokenTTL time.Duration

func init() {
	SeedCmd.Flags().DurationVar(&seedTokenTTL, "token-ttl", 24*time.Hour, "Lifetime of the printed tokens")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	users, err := Seed(ctx, store)
	if err != nil {
		return err
	}
	return printSeedUsers(cmd.OutOrStdout(), users, cfg.Auth.JWTSecret, seedTokenTTL)
}

// Seed writes the demo records through the services, so they pass the same rules as API writes
func Seed(ctx context.Context, store repository.Store) ([]models.User, error) {
	log := logger.Named("seed")
	users := []models.User{
		{Role: models.RoleEmployer, FirstName: "Maria", LastName: "Santos", Email: "maria@example.com",
			CompanyName: "Panaderia Maria", ContactNumber: "09171234567", Barangay: "San Isidro"},
		{Role: models.RoleJobSeeker, FirstName: "Juan", LastName: "Dela Cruz", Email: "juan@example.com",
			ContactNumber: "09181234567", Skills: []string{"baking", "inventory"}},
		{Role: models.RoleJobSeeker, FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com",
			ContactNumber: "09191234567", Skills: []string{"cashier"}},
		{Role: models.RoleAdmin, FirstName: "PESO", LastName: "Admin", Email: "admin@example.com"},
	}
	for i := range users {
		if err := store.UpsertUser(ctx, &users[i]); err != nil {
			return nil, errors.Wrapf(err, "failed to seed user %s", users[i].Email)
		}
	}
	employer, admin := users[0], users[3]

	notifier := services.NewNotifier(store, log)
	jobs := services.NewJobService(store, notifier, log, services.EditPreserve)
	moderation := services.NewModerationService(store, jobs, notifier, log)

	approved, err := jobs.Create(ctx, employer.ID, dto.JobInput{
		Title:          "Bakery Helper",
		Description:    "Early morning shift. Kneading, baking and packing pandesal.",
		Barangay:       "San Isidro",
		Address:        "12 Rizal St",
		ContactNumber:  employer.ContactNumber,
		Skills:         []string{"baking"},
		JobType:        string(models.JobFullTime),
		ApplicantLimit: 2,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to seed job")
	}
	if _, err := moderation.Decide(ctx, admin.ID, approved.ID, dto.DecisionApprove, ""); err != nil {
		return nil, errors.Wrap(err, "failed to approve seeded job")
	}

	if _, err := jobs.Create(ctx, employer.ID, dto.JobInput{
		Title:         "Store Cashier",
		Description:   "Weekend cashier for the bakery storefront.",
		Barangay:      "San Isidro",
		Address:       "12 Rizal St",
		ContactNumber: employer.ContactNumber,
		JobType:       string(models.JobPartTime),
	}); err != nil {
		return nil, errors.Wrap(err, "failed to seed job")
	}

	log.Infow("Seed data written", "users", len(users), "jobs", 2)
	return users, nil
}

func printSeedUsers(w io.Writer, users []models.User, secret string, ttl time.Duration) error {
	for _, u := range users {
		fmt.Fprintf(w, "%-10s %-20s %s\n", u.Role, u.Email, u.ID.Hex())
		if secret == "" {
			continue
		}
		claims := middleware.MyClaims{
			UID:  u.ID.Hex(),
			Role: string(u.Role),
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   u.ID.Hex(),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			return errors.Wrap(err, "failed to sign token")
		}
		fmt.Fprintf(w, "           token: %s\n", token)
	}
	return nil
}
