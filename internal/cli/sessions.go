package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var sessionsLimit int

// sessionsCmd lists recent recognition sessions.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent recognition sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := openStore(cfg.DataDir)
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.Sessions().Recent(sessionsLimit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tWORDS")
		for _, s := range sessions {
			duration := "running"
			if s.EndedAt != nil {
				duration = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.ID, s.StartedAt.Local().Format(time.DateTime), duration, s.Words)
		}
		return w.Flush()
	},
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 10, "number of sessions to show")
}
