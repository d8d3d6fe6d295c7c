package cli

import (
	"fmt"
	"log/slog"

	"github.com/nmrtools/ridat/internal/detect"
	"github.com/nmrtools/ridat/internal/ridat"
	"github.com/nmrtools/ridat/internal/source"
	"github.com/spf13/afero"
)

// inputFs is the CLI filesystem with writes disabled. Acquisition files are
// only ever read through it.
func (c *CLI) inputFs() afero.Fs {
	return c.fsFactory.ReadOnly(c.fs)
}

// decodePath decodes the RiDat file at path. When the magic number does not
// match, the error names the detected content type.
func (c *CLI) decodePath(path string) (*ridat.AcquisitionRecord, error) {
	rec, err := ridat.DecodeFile(c.inputFs(), path)
	if err == nil {
		slog.Info("decoded RiDat file", "path", path, "samples", rec.Len(), "title", rec.Title)
		return rec, nil
	}

	if ridat.KindOf(err) == ridat.KindBadMagic {
		if head, sniffErr := source.SniffFile(c.inputFs(), path); sniffErr == nil && len(head) > 0 {
			return nil, fmt.Errorf("%s: %w (input looks like %s)", path, err, detect.MIME(head))
		}
	}
	return nil, fmt.Errorf("%s: %w", path, err)
}
