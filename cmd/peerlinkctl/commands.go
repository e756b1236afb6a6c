package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, rm, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := rm.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓")+" Migrations applied")
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <email>",
		Short: "Show the connection state of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.connections(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			st, err := svc.GetStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if st.IsConnected {
				fmt.Fprintf(out, "%s connected to %s\n", color.GreenString("●"), color.CyanString(st.ConnectedTo))
			} else {
				fmt.Fprintf(out, "%s not connected\n", color.YellowString("○"))
			}
			if len(st.PendingRequests) == 0 {
				fmt.Fprintln(out, "pending requests: none")
			} else {
				fmt.Fprintf(out, "pending requests: %s\n", strings.Join(st.PendingRequests, ", "))
			}
			return nil
		},
	}
}

func newGenerateKeyCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "generate-key <email>",
		Short: "Issue a new connection key, replacing the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.connections(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			key, err := svc.GenerateKey(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s key for %s: %s\n", color.GreenString("✓"), args[0], color.YellowString(key))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name to store with the key")
	return cmd
}

func newDisconnectCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "disconnect <email>",
		Short: "Clear the connection of a user on both sides",
		Long: `Clear the connection of a user on both sides.

With --force only the given record is cleared, whatever it holds. Use it to
repair a record whose peer no longer points back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.connections(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			out := cmd.OutOrStdout()
			if force {
				peer, err := svc.ForceDisconnect(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if peer == "" {
					fmt.Fprintf(out, "%s %s was not connected\n", color.YellowString("○"), args[0])
					return nil
				}
				fmt.Fprintf(out, "%s %s cleared (was pointing at %s)\n", color.GreenString("✓"), args[0], peer)
				return nil
			}

			res, err := svc.Disconnect(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s %s disconnected from %s\n", color.GreenString("✓"), args[0], res.Peer)
			if res.Partial {
				fmt.Fprintf(out, "%s %s did not point back; only %s was cleared\n",
					color.YellowString("!"), res.Peer, args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "clear only this record, whatever it points at")
	return cmd
}
