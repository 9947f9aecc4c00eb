package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/drivelog/pkg/config"
	"github.com/ccollicutt/drivelog/pkg/store"
)

// SessionsOptions holds command-line options for the sessions command.
type SessionsOptions struct {
	DBPath string
	Output string
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand() *cobra.Command {
	opts := &SessionsOptions{}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List archived decode sessions",
		Long: `List the runs archived with --db or store.path, newest first.

The database defaults to DRIVELOG_STORE_PATH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", os.Getenv(config.EnvStorePath), "sqlite database to read")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")

	return cmd
}

func runSessions(cmd *cobra.Command, opts *SessionsOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.DBPath == "" {
		return fmt.Errorf("no database given (use --db or %s)", config.EnvStorePath)
	}
	if _, err := os.Stat(opts.DBPath); err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	s, err := store.Open(ctx, opts.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	sessions, err := s.Sessions(ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.Output == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(sessions)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions archived.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROCESSED\tKIND\tTECHNOLOGY\tPOINTS\tEVENTS\tSOURCES")
	for _, sess := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			sess.ID,
			sess.ProcessedAt.Format("2006-01-02 15:04:05"),
			sess.Kind,
			sess.DetectedTechnology,
			sess.Measurements,
			sess.Events,
			strings.Join(sess.Sources, ","))
	}
	return tw.Flush()
}
