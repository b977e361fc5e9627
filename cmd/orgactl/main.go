// Command orgactl da de alta administradores directamente contra Postgres.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orga/internal/db"
	"orga/internal/db/migrations"
	"orga/internal/logging"
	"orga/internal/repository"
	"orga/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	if err := newRootCommand(ctx).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	databaseURL string
	logLevel    string
}

func newRootCommand(ctx context.Context) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "orgactl",
		Short:         "Bootstrap tooling for the orga API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection string (defaults to $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")

	cmd.AddCommand(
		newCreateSuperAdminCommand(ctx, opts),
		newCreateTenantAdminCommand(ctx, opts),
	)
	return cmd
}

type adminFlags struct {
	email        string
	password     string
	fullName     string
	tenantName   string
	tenantDomain string
}

func (f *adminFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "admin email")
	cmd.Flags().StringVar(&f.password, "password", "", "admin password (min 6 chars)")
	cmd.Flags().StringVar(&f.fullName, "full-name", "", "display name (defaults to the email local part)")
	cmd.Flags().StringVar(&f.tenantName, "tenant-name", "", "tenant name")
	cmd.Flags().StringVar(&f.tenantDomain, "tenant-domain", "", "tenant domain; reused if it already exists")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
}

func (f *adminFlags) input() service.SetupInput {
	return service.SetupInput{
		Email:        f.email,
		Password:     f.password,
		FullName:     f.fullName,
		TenantName:   f.tenantName,
		TenantDomain: f.tenantDomain,
	}
}

func newCreateSuperAdminCommand(ctx context.Context, opts *rootOptions) *cobra.Command {
	flags := &adminFlags{}
	cmd := &cobra.Command{
		Use:   "create-super-admin",
		Short: "Create a SUPER_ADMIN user (tenant defaults to Platform/platform)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSetup(ctx, opts, func(setup *service.SetupService) error {
				tenant, user, err := setup.CreateSuperAdmin(ctx, flags.input())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "super admin %s created in tenant %s (%s)\n", user.Email, tenant.Name, tenant.ID)
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newCreateTenantAdminCommand(ctx context.Context, opts *rootOptions) *cobra.Command {
	flags := &adminFlags{}
	cmd := &cobra.Command{
		Use:   "create-tenant-admin",
		Short: "Create a TENANT_ADMIN user, creating the tenant if its domain is new",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSetup(ctx, opts, func(setup *service.SetupService) error {
				tenant, user, err := setup.CreateTenantAdmin(ctx, flags.input())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tenant admin %s created in tenant %s (%s)\n", user.Email, tenant.Name, tenant.ID)
				return nil
			})
		},
	}
	flags.bind(cmd)
	_ = cmd.MarkFlagRequired("tenant-name")
	_ = cmd.MarkFlagRequired("tenant-domain")
	return cmd
}

// withSetup abre el pool, aplica migraciones y arma el SetupService.
func withSetup(ctx context.Context, opts *rootOptions, fn func(*service.SetupService) error) error {
	if opts.databaseURL == "" {
		return fmt.Errorf("database url is required (--database-url or DATABASE_URL)")
	}
	logger, err := logging.New("development", opts.logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pool, err := db.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	setup := service.NewSetupService(logger.With(zap.String("component", "orgactl")), repository.NewPgProvisioner(pool), repository.NewPgUserRepository(pool))
	return fn(setup)
}
