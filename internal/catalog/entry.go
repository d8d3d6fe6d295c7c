package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/nmrtools/ridat/internal/ridat"
)

// OutcomeError names failures that carry no decode error kind.
const OutcomeError = "error"

// Entry is one recorded decode attempt.
type Entry struct {
	ID           string
	Timestamp    time.Time
	Path         string
	Outcome      string // ridat.Kind name, "ok" on success, OutcomeError otherwise
	Title        string
	SequenceName string
	Samples      int
	Error        string
}

// EntryFor describes the result of decoding path. rec is ignored when err is set.
func EntryFor(path string, rec *ridat.AcquisitionRecord, err error) Entry {
	e := Entry{Path: path, Outcome: ridat.KindOf(err).String()}
	if err != nil {
		if ridat.KindOf(err) == ridat.KindNone {
			e.Outcome = OutcomeError
		}
		e.Error = err.Error()
		return e
	}
	if rec != nil {
		e.Title = rec.Title
		e.SequenceName = rec.Application.SequenceName
		e.Samples = rec.Len()
	}
	return e
}

// Record stores e. A missing ID or timestamp is filled in, and the stored
// entry is returned.
func (c *Catalog) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("decodes").
		Cols("id", "timestamp", "path", "outcome", "title", "sequence_name", "samples", "error").
		Values(e.ID, e.Timestamp.UnixMilli(), e.Path, e.Outcome, e.Title, e.SequenceName, e.Samples, e.Error)
	query, args := ib.Build()

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		slog.Error("failed to record decode", "path", e.Path, "error", err)
		return Entry{}, fmt.Errorf("failed to record decode: %w", err)
	}

	slog.Debug("decode recorded",
		"id", e.ID,
		"path", e.Path,
		"outcome", e.Outcome,
		"samples", e.Samples)
	return e, nil
}
