package snapshot

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/openkrx/krxsnap/internal/dates"
	"github.com/openkrx/krxsnap/internal/krx"
)

// dropHeaders returns hs without the named columns, preserving order.
func dropHeaders(hs []string, drop ...string) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		if !slices.Contains(drop, h) {
			out = append(out, h)
		}
	}
	return out
}

// ETFJob snapshots the all-ETFs daily quote report. Each row embeds a
// snapshot of the fund's underlying index, and no report publishes those
// indices directly, so the job tears the embedded columns out into a
// parallel per-date index artifact.
type ETFJob struct {
	Client  *krx.Client
	DataDir string
}

var etfIndexFields = []string{"index_name", "index_close", "index_change", "index_change_rate"}

// The ISIN is derivable from the catalog, and total net assets lag a
// day behind (today's value reads zero until tomorrow); both are
// dropped from the daily artifact.
var etfDropFields = append([]string{"isin", "net_assets"}, etfIndexFields...)

func (j *ETFJob) Name() string { return "etf" }

func (j *ETFJob) PrimaryPath(date dates.Date) string {
	return filepath.Join(j.DataDir, "etf", "quotes", date.Year(), string(date)+".csv")
}

func (j *ETFJob) indexPath(date dates.Date) string {
	return filepath.Join(j.DataDir, "etf", "index", date.Year(), string(date)+".csv")
}

func (j *ETFJob) Fetch(ctx context.Context, date dates.Date) ([]krx.Record, error) {
	rows, _, err := j.Client.Fetch(ctx, krx.ETFQuotes, map[string]string{"trdDd": date.Marshal("")})
	if err != nil {
		return nil, err
	}
	return krx.ETFQuotes.NormalizeAll(rows)
}

func (j *ETFJob) HolidayField() string { return "open" }

func (j *ETFJob) Artifacts(date dates.Date, recs []krx.Record) []Artifact {
	quoteRows := make([]krx.Record, 0, len(recs))
	indexRows := make([]krx.Record, 0, len(recs))
	seen := make(map[string]bool)

	for _, rec := range recs {
		quote := make(krx.Record, len(rec))
		for k, v := range rec {
			if !slices.Contains(etfDropFields, k) {
				quote[k] = v
			}
		}
		quoteRows = append(quoteRows, quote)

		// Many funds track the same index; keep one row per name.
		name, _ := rec["index_name"].(string)
		if seen[name] {
			continue
		}
		seen[name] = true
		indexRows = append(indexRows, krx.Record{
			"name":        rec["index_name"],
			"close":       rec["index_close"],
			"change":      rec["index_change"],
			"change_rate": rec["index_change_rate"],
		})
	}

	return []Artifact{
		{
			Path:    j.PrimaryPath(date),
			Headers: dropHeaders(krx.ETFQuotes.Headers(), etfDropFields...),
			Rows:    quoteRows,
		},
		{
			Path:    j.indexPath(date),
			Headers: []string{"name", "close", "change", "change_rate"},
			Rows:    indexRows,
		},
	}
}

// StockJob snapshots the all-instruments daily quote report for one
// market. In Latest mode the job maintains a single cumulative file
// holding the most recent trading day instead of year buckets.
type StockJob struct {
	Client     *krx.Client
	DataDir    string
	Market     krx.Market
	MarketName string // directory segment: "kospi" or "kosdaq"
	Latest     bool
}

func (j *StockJob) Name() string { return "stock-" + j.MarketName }

func (j *StockJob) PrimaryPath(date dates.Date) string {
	if j.Latest {
		return filepath.Join(j.DataDir, "stock", j.MarketName, "latest.csv")
	}
	return filepath.Join(j.DataDir, "stock", j.MarketName, "quotes", date.Year(), string(date)+".csv")
}

func (j *StockJob) Fetch(ctx context.Context, date dates.Date) ([]krx.Record, error) {
	rows, _, err := j.Client.Fetch(ctx, krx.StockQuotes, map[string]string{
		"trdDd": date.Marshal(""),
		"mktId": string(j.Market),
	})
	if err != nil {
		return nil, err
	}
	return krx.StockQuotes.NormalizeAll(rows)
}

func (j *StockJob) HolidayField() string { return "open" }

func (j *StockJob) Artifacts(date dates.Date, recs []krx.Record) []Artifact {
	rows := make([]krx.Record, 0, len(recs))
	for _, rec := range recs {
		row := make(krx.Record, len(rec))
		for k, v := range rec {
			if k != "isin" {
				row[k] = v
			}
		}
		rows = append(rows, row)
	}
	return []Artifact{{
		Path:    j.PrimaryPath(date),
		Headers: dropHeaders(krx.StockQuotes.Headers(), "isin"),
		Rows:    rows,
	}}
}
