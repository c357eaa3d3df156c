package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/octobees/leadscan/internal/database"
	"github.com/octobees/leadscan/internal/dto"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "migrate: connect")
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "migrate: apply")
		}
		zap.L().Info("migrations applied")
		return nil
	},
}

var (
	userEmail    string
	userPassword string
	userRole     string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Provision an operator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "create-user: connect")
		}
		defer pool.Close()

		users := service.NewUserService(repository.NewPGXUsersRepository(pool))
		user, err := users.CreateUser(ctx, dto.CreateUserRequest{
			Email:    userEmail,
			Password: userPassword,
			Role:     userRole,
		})
		if err != nil {
			return eris.Wrap(err, "create-user")
		}

		zap.L().Info("user created",
			zap.String("id", user.ID),
			zap.String("email", user.Email),
			zap.String("role", user.Role),
		)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "login email")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "password, at least 8 characters")
	createUserCmd.Flags().StringVar(&userRole, "role", "admin", "admin or user")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd, createUserCmd)
}
