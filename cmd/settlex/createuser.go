package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/settlex/settlex/pkg/pg"
	"github.com/settlex/settlex/svc/auth"
)

// passwordEnv lets scripts avoid passing the password on the command line.
const passwordEnv = "SETTLEX_PASSWORD"

var errNoPassword = errors.New("a password is required: use --password or " + passwordEnv)

func newCreateUserCmd(envFiles *[]string) *cobra.Command {
	var params auth.CreateUserParams

	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if params.Password == "" {
				params.Password = os.Getenv(passwordEnv)
			}
			if params.Password == "" {
				return errNoPassword
			}

			var cfg appConfig
			if err := loadConfig(&cfg, *envFiles); err != nil {
				return err
			}
			log := newLogger(cfg)
			if cfg.PG.ConnectionString == "" {
				return errNoDatabase
			}

			ctx := cmd.Context()
			pool, err := pg.Connect(ctx, cfg.PG)
			if err != nil {
				return err
			}
			defer pool.Close()

			users := auth.NewService(auth.NewPGStore(pool), auth.WithLogger(log))
			user, err := users.CreateUser(ctx, params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Email, "email", "", "Email address used to sign in")
	cmd.Flags().StringVar(&params.Password, "password", "", "Initial password (env "+passwordEnv+")")
	cmd.Flags().BoolVar(&params.IsStaff, "staff", false, "Grant staff access")
	cmd.Flags().BoolVar(&params.IsSuperuser, "superuser", false, "Grant superuser access (implies --staff)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
