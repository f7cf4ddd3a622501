// cmd/seed/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"librarium/internal/auth"
	"librarium/internal/config"
	"librarium/internal/membership"
	"librarium/internal/storage"
)

func main() {
	var (
		name  string
		email string
	)

	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a librarian account",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print("Password: ")
			password, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if len(password) < 6 {
				return fmt.Errorf("password must be at least 6 characters")
			}

			cfg := config.Load()
			ctx := context.Background()

			db, err := storage.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storage.EnsureSchema(ctx, db); err != nil {
				return err
			}

			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
			service := membership.NewService(membership.NewPostgresUserRepository(db), logger)

			user, err := service.CreateUser(ctx, membership.CreateUserInput{
				Name:     name,
				Email:    email,
				Password: string(password),
				Role:     auth.RoleLibrarian,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created librarian %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&name, "name", "Librarian", "display name for the account")
	rootCmd.Flags().StringVar(&email, "email", "", "email address for the account")
	_ = rootCmd.MarkFlagRequired("email")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
