package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openkrx/krxsnap/internal/csvio"
	"github.com/openkrx/krxsnap/internal/krx"
	"github.com/openkrx/krxsnap/internal/snapshot"
)

// The portal has ETF data back to the first Korean ETF listings.
const etfInitialDate = "2002-10-14"

var etfFlags struct {
	dataDir   string
	startDate string
	endDate   string
	overwrite bool
}

var etfCmd = &cobra.Command{
	Use:   "etf",
	Short: "Snapshot daily ETF quotes and the embedded index series",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		start, end, err := resolveRange(etfFlags.startDate, etfFlags.endDate, etfInitialDate)
		if err != nil {
			return err
		}

		dataDir := etfFlags.dataDir
		if err := snapshot.PrepareYearDirs(cfg.KRX.FirstYear,
			filepath.Join(dataDir, "etf", "quotes"),
			filepath.Join(dataDir, "etf", "index"),
		); err != nil {
			return err
		}

		client := newKRXClient()

		return withRunLog(ctx, dataDir, "etf", start, end, func(ctx context.Context) (snapshot.Tally, error) {
			if err := writeCatalog(ctx, client, krx.ETFCatalog, nil,
				filepath.Join(dataDir, "etf", "catalog.csv")); err != nil {
				return snapshot.Tally{}, err
			}

			w := &snapshot.Walker{
				Job:       &snapshot.ETFJob{Client: client, DataDir: dataDir},
				Mode:      snapshot.ScanAll,
				Overwrite: etfFlags.overwrite,
				Settle:    settleDelay(),
			}
			return w.Run(ctx, start, end)
		})
	},
}

// writeCatalog fetches a reference report and writes it as a single
// artifact. The listed-shares column churns daily and is derivable from
// the quote artifacts, so it is dropped from the summary.
func writeCatalog(ctx context.Context, client *krx.Client, sch krx.Schema, params map[string]string, path string) error {
	rows, _, err := client.Fetch(ctx, sch, params)
	if err != nil {
		return err
	}
	recs, err := sch.NormalizeAll(rows)
	if err != nil {
		return err
	}
	zap.L().Info("fetched catalog", zap.String("report", sch.Name), zap.Int("count", len(recs)))

	headers := make([]string, 0, len(sch.Fields))
	for _, h := range sch.Headers() {
		if h != "listed_shares" {
			headers = append(headers, h)
		}
	}
	out := make([]map[string]any, len(recs))
	for i, rec := range recs {
		out[i] = rec
	}
	text, err := csvio.Encode(headers, out)
	if err != nil {
		return err
	}
	return csvio.WriteArtifact(path, text)
}

func init() {
	etfCmd.Flags().StringVar(&etfFlags.dataDir, "data-dir", "", "data directory")
	etfCmd.Flags().StringVar(&etfFlags.startDate, "start-date", "", "first date, KST (default "+etfInitialDate+")")
	etfCmd.Flags().StringVar(&etfFlags.endDate, "end-date", "", "last date, KST (default today)")
	etfCmd.Flags().BoolVar(&etfFlags.overwrite, "overwrite", false, "re-fetch dates whose artifacts exist")
	etfCmd.MarkFlagRequired("data-dir") //nolint:errcheck
	rootCmd.AddCommand(etfCmd)
}
