package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nmrtools/ridat/internal/catalog"
	"github.com/nmrtools/ridat/internal/convert"
	"github.com/nmrtools/ridat/internal/ridat"
	"github.com/nmrtools/ridat/internal/source"
	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export the signal trace of a RiDat file",
		Long: `Decode a RiDat file and write its signal trace.

Formats:
  text   delimited columns: time (us), real, imaginary
  wav    2-channel 16-bit PCM, real on the left, imaginary on the right
  aiff   same channel layout as wav

The output defaults to the input path with the format's extension.
Use "-o -" to write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: runExportCommand,
	}

	cmd.Flags().StringP("format", "f", "", "Export format (text, wav, aiff)")
	cmd.Flags().StringP("output", "o", "", "Output path, or - for stdout")
	cmd.Flags().StringP("delimiter", "d", "", "Column delimiter for text exports")

	return cmd
}

func runExportCommand(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	path := args[0]
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	if format == "" {
		format = cli.cfg.ExportFormat
	}
	delimiter := cli.cfg.Delimiter
	if cmd.Flags().Changed("delimiter") {
		delimiter, _ = cmd.Flags().GetString("delimiter")
		if delimiter == `\t` {
			delimiter = "\t"
		}
	}
	if delimiter == "" {
		return convert.ErrEmptyDelimiter
	}

	exporter, err := convert.NewDefaultRegistry(delimiter).Get(format)
	if err != nil {
		return err
	}

	rec, err := cli.decodePath(path)
	cli.recordDecodes(cmd.Context(), catalog.EntryFor(path, rec, err))
	if err != nil {
		return err
	}

	if output == "-" {
		slog.Debug("exporting to stdout", "format", exporter.Name())
		return exporter.Export(rec, cmd.OutOrStdout())
	}
	if output == "" {
		output = defaultOutputPath(path, exporter.Extension())
	}

	if err := cli.exportToFile(exporter, rec, output); err != nil {
		return err
	}

	slog.Info("export completed", "input", path, "output", output, "format", exporter.Name())
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d samples to %s\n", rec.Len(), output)
	return nil
}

// exportToFile writes the export to path, removing the partial file on failure.
func (c *CLI) exportToFile(exporter convert.Exporter, rec *ridat.AcquisitionRecord, path string) error {
	file, err := c.fs.Create(path)
	if err != nil {
		slog.Error("failed to create output file", "path", path, "error", err)
		return fmt.Errorf("failed to create output file: %w", err)
	}

	exportErr := exporter.Export(rec, file)
	closeErr := file.Close()
	if exportErr == nil {
		exportErr = closeErr
	}
	if exportErr != nil {
		if rmErr := c.fs.Remove(path); rmErr != nil {
			slog.Warn("failed to remove partial output", "path", path, "error", rmErr)
		}
		return fmt.Errorf("export to %s failed: %w", path, exportErr)
	}
	return nil
}

// defaultOutputPath replaces the input's extension, and a trailing .zst,
// with ext.
func defaultOutputPath(input, ext string) string {
	base := input
	if source.IsCompressed(base) {
		base = base[:len(base)-len(".zst")]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ext
}
