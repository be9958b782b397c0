package snapshot

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkrx/krxsnap/internal/dates"
	"github.com/openkrx/krxsnap/internal/krx"
)

// fakeJob serves canned records per date and counts fetches. Dates not
// in recs answer empty, like a future date would.
type fakeJob struct {
	dir     string
	recs    map[dates.Date][]krx.Record
	fetched []dates.Date
}

func (j *fakeJob) Name() string { return "fake" }

func (j *fakeJob) PrimaryPath(date dates.Date) string {
	return filepath.Join(j.dir, string(date)+".csv")
}

func (j *fakeJob) Fetch(_ context.Context, date dates.Date) ([]krx.Record, error) {
	j.fetched = append(j.fetched, date)
	return j.recs[date], nil
}

func (j *fakeJob) HolidayField() string { return "open" }

func (j *fakeJob) Artifacts(date dates.Date, recs []krx.Record) []Artifact {
	return []Artifact{{
		Path:    j.PrimaryPath(date),
		Headers: []string{"ticker", "open"},
		Rows:    recs,
	}}
}

func tradingDay() []krx.Record {
	return []krx.Record{{"ticker": "069500", "open": 32900.0}}
}

func holiday() []krx.Record {
	return []krx.Record{{"ticker": "069500", "open": math.NaN()}}
}

// 2025-02-06 Thu .. 2025-02-10 Mon: three weekdays around one weekend.
func TestWalker_ScanAll(t *testing.T) {
	job := &fakeJob{
		dir: t.TempDir(),
		recs: map[dates.Date][]krx.Record{
			"2025-02-06": tradingDay(),
			"2025-02-07": tradingDay(),
			// 2025-02-10 absent: future date, empty response.
		},
	}
	w := &Walker{Job: job, Mode: ScanAll}

	tally, err := w.Run(context.Background(), "2025-02-06", "2025-02-10")
	require.NoError(t, err)

	assert.Equal(t, []dates.Date{"2025-02-06", "2025-02-07", "2025-02-10"}, job.fetched,
		"weekends must not be fetched")
	assert.Equal(t, Tally{Weekend: 2, Empty: 1, Saved: 2}, tally)
	assert.FileExists(t, job.PrimaryPath("2025-02-06"))
	assert.FileExists(t, job.PrimaryPath("2025-02-07"))
	assert.NoFileExists(t, job.PrimaryPath("2025-02-10"))
}

func TestWalker_SecondRunFetchesNothing(t *testing.T) {
	job := &fakeJob{
		dir: t.TempDir(),
		recs: map[dates.Date][]krx.Record{
			"2025-02-06": tradingDay(),
			"2025-02-07": tradingDay(),
		},
	}
	w := &Walker{Job: job, Mode: ScanAll}

	_, err := w.Run(context.Background(), "2025-02-06", "2025-02-07")
	require.NoError(t, err)
	first, err := os.ReadFile(job.PrimaryPath("2025-02-06"))
	require.NoError(t, err)

	job.fetched = nil
	tally, err := w.Run(context.Background(), "2025-02-06", "2025-02-07")
	require.NoError(t, err)

	assert.Empty(t, job.fetched, "existing artifacts must not be re-fetched")
	assert.Equal(t, Tally{Exists: 2}, tally)

	second, err := os.ReadFile(job.PrimaryPath("2025-02-06"))
	require.NoError(t, err)
	assert.Equal(t, first, second, "artifacts must be byte-identical across runs")
}

func TestWalker_OverwriteRefetches(t *testing.T) {
	job := &fakeJob{
		dir:  t.TempDir(),
		recs: map[dates.Date][]krx.Record{"2025-02-06": tradingDay()},
	}
	w := &Walker{Job: job, Mode: ScanAll}

	_, err := w.Run(context.Background(), "2025-02-06", "2025-02-06")
	require.NoError(t, err)

	w.Overwrite = true
	job.fetched = nil
	tally, err := w.Run(context.Background(), "2025-02-06", "2025-02-06")
	require.NoError(t, err)
	assert.Equal(t, []dates.Date{"2025-02-06"}, job.fetched)
	assert.Equal(t, Tally{Saved: 1}, tally)
}

func TestWalker_HolidayRowsAreNotSaved(t *testing.T) {
	job := &fakeJob{
		dir:  t.TempDir(),
		recs: map[dates.Date][]krx.Record{"2025-01-01": holiday()},
	}
	w := &Walker{Job: job, Mode: ScanAll}

	tally, err := w.Run(context.Background(), "2025-01-01", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, Tally{Holiday: 1}, tally)
	assert.NoFileExists(t, job.PrimaryPath("2025-01-01"))
}

func TestWalker_ScanUntilFirstHit(t *testing.T) {
	// Newest-first: 2025-02-10 answers empty (not yet published),
	// weekend skipped, 2025-02-07 saves and stops the walk.
	job := &fakeJob{
		dir: t.TempDir(),
		recs: map[dates.Date][]krx.Record{
			"2025-02-06": tradingDay(),
			"2025-02-07": tradingDay(),
		},
	}
	w := &Walker{Job: job, Mode: ScanUntilFirstHit}

	tally, err := w.Run(context.Background(), "2025-02-03", "2025-02-10")
	require.NoError(t, err)

	assert.Equal(t, []dates.Date{"2025-02-10", "2025-02-07"}, job.fetched)
	assert.Equal(t, Tally{Weekend: 2, Empty: 1, Saved: 1}, tally)
	assert.NoFileExists(t, job.PrimaryPath("2025-02-06"), "walk must stop at the first saved date")
}

func TestWalker_StartAfterEnd(t *testing.T) {
	w := &Walker{Job: &fakeJob{dir: t.TempDir()}, Mode: ScanAll}
	_, err := w.Run(context.Background(), "2025-02-10", "2025-02-06")
	require.Error(t, err)
}

func TestPrepareYearDirs(t *testing.T) {
	base := t.TempDir()
	quotes := filepath.Join(base, "etf", "quotes")
	index := filepath.Join(base, "etf", "index")

	require.NoError(t, PrepareYearDirs(2023, quotes, index))

	assert.DirExists(t, filepath.Join(quotes, "2023"))
	assert.DirExists(t, filepath.Join(quotes, "2025"))
	assert.DirExists(t, filepath.Join(index, "2024"))
}
