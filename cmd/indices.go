package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openkrx/krxsnap/internal/csvio"
	"github.com/openkrx/krxsnap/internal/dates"
	"github.com/openkrx/krxsnap/internal/krx"
	"github.com/openkrx/krxsnap/internal/snapshot"
)

// Index history starts where the ETF history starts. Some indices go
// back to the 1970s, but the catalog does not expose a reliable first
// date per index.
const indexInitialDate = "2002-10-14"

var indicesFlags struct {
	dataDir string
	endDate string
}

var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "Snapshot the stock-index catalogs and backfill per-index history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, end, err := resolveRange("", indicesFlags.endDate, indexInitialDate)
		if err != nil {
			return err
		}

		dataDir := indicesFlags.dataDir
		seriesDir := filepath.Join(dataDir, "indices", "series")
		if err := os.MkdirAll(seriesDir, 0o755); err != nil {
			return eris.Wrapf(err, "create series dir %s", seriesDir)
		}

		client := newKRXClient()

		return withRunLog(ctx, dataDir, "indices", indexInitialDate, end, func(ctx context.Context) (snapshot.Tally, error) {
			recs, err := fetchIndexCatalogs(ctx, client)
			if err != nil {
				return snapshot.Tally{}, err
			}

			headers := append([]string{"family"}, krx.IndexCatalog.Headers()...)
			rows := make([]map[string]any, len(recs))
			for i, rec := range recs {
				rows[i] = rec
			}
			text, err := csvio.Encode(headers, rows)
			if err != nil {
				return snapshot.Tally{}, err
			}
			if err := csvio.WriteArtifact(filepath.Join(dataDir, "indices", "catalog.csv"), text); err != nil {
				return snapshot.Tally{}, err
			}

			return backfillSeries(ctx, client, seriesDir, recs, end)
		})
	},
}

// fetchIndexCatalogs loads the four family catalogs concurrently and
// returns the combined records tagged with their family, in family
// order.
func fetchIndexCatalogs(ctx context.Context, client *krx.Client) ([]krx.Record, error) {
	log := zap.L().With(zap.String("report", krx.IndexCatalog.Name))

	perFamily := make([][]krx.Record, len(krx.IndexFamilies))
	g, gctx := errgroup.WithContext(ctx)
	for i, family := range krx.IndexFamilies {
		i, family := i, family
		g.Go(func() error {
			rows, _, err := client.Fetch(gctx, krx.IndexCatalog, map[string]string{
				"idxIndMidclssCd": family.MidClass(),
			})
			if err != nil {
				return err
			}
			recs, err := krx.IndexCatalog.NormalizeAll(rows)
			if err != nil {
				return err
			}
			for _, rec := range recs {
				rec["family"] = string(family)
			}
			log.Info("fetched family catalog", zap.String("family", string(family)), zap.Int("count", len(recs)))
			perFamily[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var combined []krx.Record
	for _, recs := range perFamily {
		combined = append(combined, recs...)
	}
	return combined, nil
}

// backfillSeries writes one history file per index, skipping files that
// already exist. Histories only gain rows at the tail, so a re-run with
// a later end date means deleting the file first.
func backfillSeries(ctx context.Context, client *krx.Client, seriesDir string, recs []krx.Record, end dates.Date) (snapshot.Tally, error) {
	log := zap.L().With(zap.String("report", krx.IndexHistory.Name))

	var tally snapshot.Tally
	for _, rec := range recs {
		groupID, _ := rec["group_id"].(string)
		indexID, _ := rec["index_id"].(string)
		name, _ := rec["name"].(string)

		// Names like "코스피 200 에너지/화학" would split the path.
		base := groupID + "_" + indexID + "_" + strings.ReplaceAll(name, "/", "")
		path := filepath.Join(seriesDir, base+".csv")

		if _, err := os.Stat(path); err == nil {
			tally.Exists++
			log.Info("series exists", zap.String("index", name))
			continue
		}

		rows, err := client.FetchRange(ctx, krx.IndexHistory, map[string]string{
			"indIdx":  groupID,
			"indIdx2": indexID,
		}, indexInitialDate, end)
		if err != nil {
			return tally, err
		}
		history, err := krx.IndexHistory.NormalizeAll(rows)
		if err != nil {
			return tally, err
		}

		out := make([]map[string]any, len(history))
		for i, h := range history {
			out[i] = h
		}
		text, err := csvio.Encode(krx.IndexHistory.Headers(), out)
		if err != nil {
			return tally, err
		}
		if err := csvio.WriteArtifact(path, text); err != nil {
			return tally, err
		}
		tally.Saved++
		log.Info("series saved", zap.String("index", name), zap.Int("rows", len(history)))

		if err := sleepCtx(ctx, settleDelay()); err != nil {
			return tally, err
		}
	}
	return tally, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func init() {
	indicesCmd.Flags().StringVar(&indicesFlags.dataDir, "data-dir", "", "data directory")
	indicesCmd.Flags().StringVar(&indicesFlags.endDate, "end-date", "", "last date, KST (default today)")
	indicesCmd.MarkFlagRequired("data-dir") //nolint:errcheck
	rootCmd.AddCommand(indicesCmd)
}
