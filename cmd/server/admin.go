package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/postgres"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/spf13/cobra"
)

// adminPasswordEnv lets scripts provide the password without putting it on the command line.
const adminPasswordEnv = "TASKBOARD_ADMIN_PASSWORD"

type adminOptions struct {
	name     string
	email    string
	password string
}

// newCreateAdminCmd seeds a SUPER_ADMIN account. Registration only ever
// creates USER accounts, so the first administrator has to come from here.
func newCreateAdminCmd(cfgFile *string) *cobra.Command {
	opts := &adminOptions{}
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a SUPER_ADMIN user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.password == "" {
				opts.password = os.Getenv(adminPasswordEnv)
			}
			if opts.password == "" {
				return fmt.Errorf("a password is required: pass --password or set %s", adminPasswordEnv)
			}
			return runCreateAdmin(cmd.Context(), *cfgFile, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&opts.email, "email", "", "login email")
	cmd.Flags().StringVar(&opts.password, "password", "", "login password (or set "+adminPasswordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runCreateAdmin(ctx context.Context, cfgFile string, opts *adminOptions, out io.Writer) error {
	cfg, err := loadAppConfig(cfgFile)
	if err != nil {
		return err
	}
	log, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	user, err := createAdmin(ctx, db, cfg.Auth.BcryptCost, opts, log)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "created %s %s (%s)\n", user.Role, user.Email, user.ID)
	return err
}

func createAdmin(
	ctx context.Context,
	db *sql.DB,
	bcryptCost int,
	opts *adminOptions,
	log *slog.Logger,
) (*domain.User, error) {
	bcrypt := auth.NewBcryptVerifier(bcryptCost)
	users := service.NewUserService(postgres.NewPostgresUserStore(db, log), bcrypt, bcrypt, db, log)

	user, err := users.CreateUser(ctx, service.NewUserInput{
		Name:     opts.name,
		Email:    opts.email,
		Password: opts.password,
		Role:     domain.RoleSuperAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, nil
}
