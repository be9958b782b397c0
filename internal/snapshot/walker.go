// Package snapshot walks a date range and persists one CSV artifact set
// per trading day. Idempotence comes from the filesystem: a date whose
// primary artifact already exists is skipped, so interrupted runs resume
// by re-running the same command.
package snapshot

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openkrx/krxsnap/internal/csvio"
	"github.com/openkrx/krxsnap/internal/dates"
	"github.com/openkrx/krxsnap/internal/krx"
)

// Mode selects the walk direction and stop condition.
type Mode int

const (
	// ScanAll visits every date oldest-first and persists each
	// non-weekend, non-existing date independently.
	ScanAll Mode = iota
	// ScanUntilFirstHit visits dates newest-first and stops after the
	// first date that actually saves, yielding the latest trading day.
	ScanUntilFirstHit
)

// Outcome is the terminal classification of one visited date. Only
// Saved produced an artifact; the rest are control flow, not errors.
type Outcome string

const (
	OutcomeWeekend Outcome = "weekend"
	OutcomeExists  Outcome = "exists"
	OutcomeEmpty   Outcome = "empty"
	OutcomeHoliday Outcome = "holiday"
	OutcomeSaved   Outcome = "saved"
)

// Artifact is one CSV file to be written for a visited date.
type Artifact struct {
	Path    string
	Headers []string
	Rows    []krx.Record
}

// Job supplies the per-category pieces of a walk: where the primary
// artifact lives, how to fetch a day, and how records map to files.
type Job interface {
	Name() string
	// PrimaryPath is the file whose existence marks the date as done.
	PrimaryPath(date dates.Date) string
	Fetch(ctx context.Context, date dates.Date) ([]krx.Record, error)
	// HolidayField names the leading numeric field probed on the first
	// record: the portal answers market holidays with full-length rows
	// whose numeric cells are all the "-" sentinel.
	HolidayField() string
	Artifacts(date dates.Date, recs []krx.Record) []Artifact
}

// Tally counts per-outcome dates over one walk.
type Tally struct {
	Weekend int
	Exists  int
	Empty   int
	Holiday int
	Saved   int
}

func (t *Tally) bump(o Outcome) {
	switch o {
	case OutcomeWeekend:
		t.Weekend++
	case OutcomeExists:
		t.Exists++
	case OutcomeEmpty:
		t.Empty++
	case OutcomeHoliday:
		t.Holiday++
	case OutcomeSaved:
		t.Saved++
	}
}

// Walker drives one job across a date range.
type Walker struct {
	Job       Job
	Mode      Mode
	Overwrite bool
	// Settle is slept after every fetch regardless of outcome, keeping
	// the request cadence polite. Zero disables it (tests).
	Settle time.Duration
}

// Run walks [start, end] inclusive and returns the outcome tally. The
// first fetch, decode, or write error aborts the walk.
func (w *Walker) Run(ctx context.Context, start, end dates.Date) (Tally, error) {
	log := zap.L().With(zap.String("job", w.Job.Name()))

	var tally Tally
	if start > end {
		return tally, eris.Errorf("snapshot: start %s after end %s", start, end)
	}

	total := dates.DiffDay(start, end) + 1
	cursor := start
	stepDir := 1
	if w.Mode == ScanUntilFirstHit {
		cursor = end
		stepDir = -1
	}

	for step := 1; step <= total; step++ {
		select {
		case <-ctx.Done():
			return tally, eris.Wrap(ctx.Err(), "snapshot: walk")
		default:
		}

		outcome, count, err := w.visit(ctx, cursor)
		if err != nil {
			return tally, err
		}
		tally.bump(outcome)

		log.Info("visited date",
			zap.String("date", string(cursor)),
			zap.String("outcome", string(outcome)),
			zap.Int("rows", count),
			zap.String("progress", strconv.Itoa(step)+"/"+strconv.Itoa(total)),
		)

		if w.Mode == ScanUntilFirstHit && outcome == OutcomeSaved {
			break
		}
		cursor = cursor.AddDay(stepDir)
	}

	return tally, nil
}

func (w *Walker) visit(ctx context.Context, date dates.Date) (Outcome, int, error) {
	// The exchange never opens on weekends. Holidays have no such cheap
	// test, so those dates are fetched and classified from the response.
	if date.IsWeekendKST() {
		return OutcomeWeekend, 0, nil
	}

	primary := w.Job.PrimaryPath(date)
	if !w.Overwrite {
		if _, err := os.Stat(primary); err == nil {
			return OutcomeExists, 0, nil
		}
	}

	recs, err := w.Job.Fetch(ctx, date)
	if err != nil {
		return "", 0, err
	}
	if err := w.settle(ctx); err != nil {
		return "", 0, err
	}

	// A future or not-yet-published date answers with zero rows.
	if len(recs) == 0 {
		return OutcomeEmpty, 0, nil
	}
	if v, ok := recs[0][w.Job.HolidayField()].(float64); ok && math.IsNaN(v) {
		return OutcomeHoliday, len(recs), nil
	}

	for _, art := range w.Job.Artifacts(date, recs) {
		if err := writeArtifact(art); err != nil {
			return "", 0, err
		}
	}
	return OutcomeSaved, len(recs), nil
}

func (w *Walker) settle(ctx context.Context) error {
	if w.Settle <= 0 {
		return nil
	}
	t := time.NewTimer(w.Settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "snapshot: settle")
	case <-t.C:
		return nil
	}
}

func writeArtifact(art Artifact) error {
	rows := make([]map[string]any, len(art.Rows))
	for i, r := range art.Rows {
		rows[i] = r
	}
	text, err := csvio.Encode(art.Headers, rows)
	if err != nil {
		return err
	}
	return csvio.WriteArtifact(art.Path, text)
}

// PrepareYearDirs creates every year bucket from firstYear through the
// current year under each given directory, so the walk itself never has
// to stat or create directories.
func PrepareYearDirs(firstYear int, dirs ...string) error {
	lastYear := time.Now().In(dates.KST).Year()
	for _, dir := range dirs {
		for year := firstYear; year <= lastYear; year++ {
			p := filepath.Join(dir, strconv.Itoa(year))
			if err := os.MkdirAll(p, 0o755); err != nil {
				return eris.Wrapf(err, "snapshot: create year dir %s", p)
			}
		}
	}
	return nil
}
