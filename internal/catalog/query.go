package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/tj/go-naturaldate"
)

// DefaultLimit caps Query results when Filter.Limit is not positive.
const DefaultLimit = 20

// Filter selects catalog entries.
type Filter struct {
	Since   time.Time // inclusive; zero means no lower bound
	Until   time.Time // exclusive; zero means no upper bound
	Outcome string
	Limit   int
}

// Query returns matching entries, newest first.
func (c *Catalog) Query(ctx context.Context, f Filter) ([]Entry, error) {
	query, args := f.build()
	slog.Debug("querying decode catalog", "query", query, "arg_count", len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("catalog query failed", "error", err)
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var millis int64
		if err := rows.Scan(&e.ID, &millis, &e.Path, &e.Outcome, &e.Title, &e.SequenceName, &e.Samples, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		e.Timestamp = time.UnixMilli(millis)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}

	slog.Debug("catalog query completed", "results", len(entries))
	return entries, nil
}

func (f Filter) build() (string, []interface{}) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "timestamp", "path", "outcome", "title", "sequence_name", "samples", "error").
		From("decodes")

	if !f.Since.IsZero() {
		sb.Where(sb.GreaterEqualThan("timestamp", f.Since.UnixMilli()))
	}
	if !f.Until.IsZero() {
		sb.Where(sb.LessThan("timestamp", f.Until.UnixMilli()))
	}
	if f.Outcome != "" {
		sb.Where(sb.Equal("outcome", f.Outcome))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	sb.OrderBy("timestamp DESC", "rowid DESC").Limit(limit)

	return sb.Build()
}

// ParseSince turns a --since argument into a lower time bound. It accepts the
// presets today, yesterday, week, month and all, or natural language such as
// "3 days ago". Natural language is resolved by naturaldate, which truncates
// day-granular expressions to midnight: "3 days ago" is the start of that day.
func ParseSince(text string, now time.Time) (time.Time, error) {
	slog.Debug("parsing since filter", "input", text)

	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "all", "all-time":
		return time.Time{}, nil
	case "today":
		return beginningOfDay(now), nil
	case "yesterday":
		return beginningOfDay(now.AddDate(0, 0, -1)), nil
	case "week", "this-week":
		return beginningOfWeek(now), nil
	case "month", "this-month":
		return beginningOfMonth(now), nil
	}

	result, err := naturaldate.Parse(text, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		slog.Warn("failed to parse natural language date", "input", text, "error", err)
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", text, err)
	}
	// naturaldate returns the reference time for input it does not understand.
	if result.Equal(now) {
		return time.Time{}, fmt.Errorf("failed to parse date '%s'", text)
	}

	slog.Debug("parsed natural language date", "input", text, "result", result)
	return result, nil
}

func beginningOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// beginningOfWeek returns Monday 00:00 of t's week.
func beginningOfWeek(t time.Time) time.Time {
	weekday := t.Weekday()
	if weekday == time.Sunday {
		weekday = 7
	}
	return beginningOfDay(t.AddDate(0, 0, -int(weekday-1)))
}

func beginningOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
