package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"telpy/internal/app"
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		limit int
		prune time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history [host[:port]]",
		Short: "Show recorded login attempts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Boot(flags.cfgFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()

			if prune > 0 {
				n, err := a.Store.PruneBefore(time.Now().Add(-prune))
				if err != nil {
					return fmt.Errorf("failed to prune history: %w", err)
				}
				fmt.Fprintf(out, "Pruned %d attempt(s) older than %s\n", n, prune)
				return nil
			}

			host := ""
			if len(args) > 0 {
				if host, err = resolveAddr(args[0], "", a.Config.Target.Port); err != nil {
					return err
				}
			}

			attempts, err := a.Store.RecentAttempts(host, limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			if len(attempts) == 0 {
				fmt.Fprintln(out, "No login attempts recorded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tHOST\tUSER\tOUTCOME\tOPTIONS\tTOOK\tERROR")
			for _, at := range attempts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					at.CreatedAt.Format(time.DateTime),
					at.Host,
					at.Username,
					at.Outcome,
					at.Options,
					at.Duration.Round(time.Millisecond),
					at.Error,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of attempts to show")
	cmd.Flags().DurationVar(&prune, "prune", 0, "delete attempts older than this instead of listing")

	return cmd
}
