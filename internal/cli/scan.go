package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/nmrtools/ridat/internal/catalog"
	"github.com/nmrtools/ridat/internal/config"
	"github.com/nmrtools/ridat/internal/detect"
	"github.com/nmrtools/ridat/internal/ridat"
	"github.com/nmrtools/ridat/internal/source"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// scanResult is the outcome of examining one file during a scan.
type scanResult struct {
	path  string
	rec   *ridat.AcquisitionRecord
	err   error
	entry catalog.Entry
}

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Decode every RiDat file under a directory",
		Long: `Walk DIR, identify RiDat files by content or name and decode each one.

Files are decoded concurrently (see --workers). One line is printed per
candidate file with its outcome, sample count and title. Decode failures
are reported per file and do not change the exit status.`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCommand,
	}

	cmd.Flags().IntP("workers", "w", 0, "Concurrent decodes (default from config)")

	return cmd
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	root := args[0]
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cli.cfg.ScanWorkers
	}
	if workers > config.MaxScanWorkers {
		return fmt.Errorf("--workers must be at most %d, got %d", config.MaxScanWorkers, workers)
	}

	slog.Debug("starting scan", "root", root, "workers", workers)

	paths, err := collectFiles(cli.inputFs(), root)
	if err != nil {
		return err
	}

	results, err := cli.scanFiles(cmd.Context(), paths, workers)
	if err != nil {
		return err
	}

	entries := make([]catalog.Entry, 0, len(results))
	failed := 0
	for _, r := range results {
		entries = append(entries, r.entry)
		if r.err != nil {
			failed++
		}
	}
	cli.recordDecodes(cmd.Context(), entries...)

	out := cmd.OutOrStdout()
	if cli.isTerminalWriter(out) {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		writeScanTable(tw, results)
		tw.Flush()
	} else {
		writeScanTable(out, results)
	}

	slog.Info("scan completed", "root", root, "files", len(paths), "candidates", len(results), "failed", failed)
	fmt.Fprintf(cmd.ErrOrStderr(), "Scanned %d files: %d RiDat candidates, %d decoded, %d failed\n",
		len(paths), len(results), len(results)-failed, failed)
	return nil
}

// collectFiles returns every regular file under root in lexical order.
func collectFiles(fsys afero.Fs, root string) ([]string, error) {
	var paths []string
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Error("walk failed", "path", path, "error", err)
			return err
		}
		if info.Mode().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return paths, nil
}

// scanFiles examines paths with at most workers concurrent decodes and
// returns the RiDat candidates sorted by path.
func (c *CLI) scanFiles(ctx context.Context, paths []string, workers int) ([]scanResult, error) {
	results := make([]*scanResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.examine(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var candidates []scanResult
	for _, r := range results {
		if r != nil {
			candidates = append(candidates, *r)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].path < candidates[j].path })
	return candidates, nil
}

// examine decodes path when it is a RiDat candidate: a file whose leading
// bytes carry the RiDat magic number, or one named like a RiDat file. It
// returns nil for any other file.
func (c *CLI) examine(path string) *scanResult {
	magic := false
	if head, err := source.SniffFile(c.inputFs(), path); err == nil {
		h, err := ridat.HeaderOf(bytes.NewReader(head))
		magic = ridat.KindOf(err) != ridat.KindBadMagic
		if h != nil {
			slog.Debug("scan header", "path", path, "title", h.Title, "samples_offset", h.SamplesOffset())
		}
	}

	if !magic && !detect.HasRiDatExtension(path) {
		return nil
	}
	slog.Debug("scan candidate", "path", path, "magic", magic)

	rec, err := c.decodePath(path)
	return &scanResult{
		path:  path,
		rec:   rec,
		err:   err,
		entry: catalog.EntryFor(path, rec, err),
	}
}

func writeScanTable(w io.Writer, results []scanResult) {
	fmt.Fprintln(w, "PATH\tOUTCOME\tSAMPLES\tTITLE")
	for _, r := range results {
		title := ""
		samples := "-"
		if r.rec != nil {
			title = r.rec.Title
			samples = fmt.Sprint(r.rec.Len())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.path, r.entry.Outcome, samples, title)
	}
}
