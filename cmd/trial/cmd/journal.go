package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/trialsim/internal/console"
	"github.com/rustyeddy/trialsim/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded analysis runs",
	Long: `Query analysis runs recorded in a SQLite journal.

Subcommands:
  runs  - List recorded runs, newest first
  show  - Show the tables of one run

Examples:
  trial journal runs --db runs.sqlite
  trial journal show <run-id> --org
  trial journal show <run-id> --plain`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the results of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var (
	journalDBPath string
	journalOrg    bool
	journalPlain  bool
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./trial.sqlite", "path to SQLite journal DB")
	journalShowCmd.Flags().BoolVar(&journalOrg, "org", false, "print the run as an Org document")
	journalShowCmd.Flags().BoolVar(&journalPlain, "plain", false, "print the run as unstyled text")
	journalShowCmd.MarkFlagsMutuallyExclusive("org", "plain")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), console.Runs(runs))
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rep, err := j.GetRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case journalOrg:
		org, err := rep.FormatOrg()
		if err != nil {
			return err
		}
		fmt.Fprint(out, org)
	case journalPlain:
		journal.PrintRunReport(out, rep)
	default:
		fmt.Fprintln(out, console.Report(rep))
	}
	return nil
}
