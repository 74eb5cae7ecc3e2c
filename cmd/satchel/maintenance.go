package main

import (
	"fmt"
	"time"

	"github.com/aretw0/satchel"
	"github.com/aretw0/satchel/internal/decode"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/spf13/cobra"
)

// openBackend opens the configured backend. Provisioning is left to the setup command.
func openBackend(cmd *cobra.Command, setup bool) (*satchel.Backend, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return satchel.Open(cmd.Context(), cfg.Driver,
		satchel.WithLogger(logger),
		satchel.WithSetup(setup),
		satchel.WithMiddleware(cfg.Middlewares(logger)...),
	)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the configured session backend",
	Long:  `Creates the session directory or table. Cache backends need no provisioning.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd, true)
		if err != nil {
			return err
		}
		defer b.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "%s session backend ready\n", b.Kind)
		return nil
	},
}

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete expired sessions",
	Long:  `Runs one garbage collection sweep. Cache backends expire entries on their own and always report 0.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		maxLifetime, _ := cmd.Flags().GetDuration("max-lifetime")
		if !cmd.Flags().Changed("max-lifetime") {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := domain.DefaultOptions()
			if err := decode.Into("gc", cfg.Session, &opts, false); err != nil {
				return err
			}
			maxLifetime = opts.MaxLifetime()
		}

		b, err := openBackend(cmd, false)
		if err != nil {
			return err
		}
		defer b.Close()

		n, err := b.GC(cmd.Context(), maxLifetime)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired session(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(gcCmd)
	gcCmd.Flags().Duration("max-lifetime", 1440*time.Second, "Delete sessions idle for longer than this (default: session.gc_maxlifetime)")
}
