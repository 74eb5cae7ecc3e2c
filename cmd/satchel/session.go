package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/satchel/pkg/persistence/middleware"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and remove stored sessions",
	Long: `List, inspect, and remove sessions stored in the configured backend.

Cache backends key sessions as PREFIX+ID. When another application on the same
server uses a prefix that extends the configured one (APP and APPLE), its
sessions are reachable from these commands as well.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd, false)
		if err != nil {
			return err
		}
		defer b.Close()

		ids, err := b.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No stored sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Stored Sessions:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the payload of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd, false)
		if err != nil {
			return err
		}
		defer b.Close()

		data, err := b.Inspect(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load session '%s': %w", args[0], err)
		}
		if len(data) == 0 {
			return fmt.Errorf("session '%s' not found", args[0])
		}

		if raw, _ := cmd.Flags().GetBool("raw"); !raw {
			redactor, err := middleware.NewRedactor(middleware.DefaultRedactPatterns)
			if err != nil {
				return err
			}
			data, _ = redactor.Redact(data)
		}

		// Pretty print JSON payloads, raw bytes otherwise
		var pretty bytes.Buffer
		if json.Indent(&pretty, data, "", "  ") == nil {
			data = pretty.Bytes()
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd, false)
		if err != nil {
			return err
		}
		defer b.Close()

		if err := b.Remove(cmd.Context(), args...); err != nil {
			return err
		}
		for _, id := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionInspectCmd.Flags().Bool("raw", false, "Print the payload without masking credential-like keys")
}
