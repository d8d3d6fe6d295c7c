package cli

import (
	"fmt"
	"io"

	"github.com/nmrtools/ridat/internal/catalog"
	"github.com/nmrtools/ridat/internal/ridat"
	"github.com/spf13/cobra"
)

func newInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info FILE",
		Short: "Print the acquisition summary of a RiDat file",
		Long: `Decode a RiDat file and print its title, sequence and trace summary.

With --params every decoded acquisition parameter is listed in file order.`,
		Args: cobra.ExactArgs(1),
		RunE: runInfoCommand,
	}

	cmd.Flags().Bool("params", false, "List every decoded parameter")

	return cmd
}

func runInfoCommand(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	path := args[0]
	showParams, _ := cmd.Flags().GetBool("params")

	rec, err := cli.decodePath(path)
	cli.recordDecodes(cmd.Context(), catalog.EntryFor(path, rec, err))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSummary(out, path, rec)
	if showParams {
		fmt.Fprintln(out)
		printParameters(out, rec)
	}
	return nil
}

func printSummary(w io.Writer, path string, rec *ridat.AcquisitionRecord) {
	fmt.Fprintf(w, "File:        %s\n", path)
	fmt.Fprintf(w, "Title:       %s\n", rec.Title)
	fmt.Fprintf(w, "Sequence:    %s\n", rec.Application.SequenceName)
	fmt.Fprintf(w, "Samples:     %d\n", rec.Len())
	fmt.Fprintf(w, "Dwell time:  %g us\n", rec.Application.DW)
	if rate := rec.SampleRate(); rate > 0 {
		fmt.Fprintf(w, "Sample rate: %g Hz\n", rate)
	}
	if n := rec.Len(); n > 0 {
		fmt.Fprintf(w, "Time span:   %g .. %g us\n", rec.Time[0], rec.Time[n-1])
	}
}

func printParameters(w io.Writer, rec *ridat.AcquisitionRecord) {
	for key, value := range rec.Parameters().AllFromFront() {
		fmt.Fprintf(w, "%s = %v\n", key, value)
	}
}
