package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/nmrtools/ridat/internal/catalog"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded decodes",
		Long: `List decodes recorded in the catalog, newest first.

--since accepts "today", "yesterday", "week", "month", "all" or a natural
expression such as "3 days ago".`,
		Args: cobra.NoArgs,
		RunE: runHistoryCommand,
	}

	cmd.Flags().String("since", "", "Only show decodes after this time")
	cmd.Flags().String("outcome", "", "Only show decodes with this outcome (ok, bad-magic, ...)")
	cmd.Flags().IntP("limit", "n", catalog.DefaultLimit, "Maximum number of entries")

	return cmd
}

func runHistoryCommand(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	since, _ := cmd.Flags().GetString("since")
	outcome, _ := cmd.Flags().GetString("outcome")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := catalog.Filter{Outcome: outcome, Limit: limit}
	if since != "" {
		t, err := catalog.ParseSince(since, cli.now())
		if err != nil {
			return err
		}
		filter.Since = t
	}

	cat, err := cli.openCatalog()
	if err != nil {
		return err
	}
	if cat == nil {
		return ErrCatalogDisabled
	}

	entries, err := cat.Query(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No decodes recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOUTCOME\tSAMPLES\tPATH\tTITLE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime), e.Outcome, e.Samples, e.Path, e.Title)
	}
	return tw.Flush()
}
