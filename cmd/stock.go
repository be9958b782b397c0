package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/openkrx/krxsnap/internal/krx"
	"github.com/openkrx/krxsnap/internal/snapshot"
)

// Arbitrary backfill horizon; old enough to cover the 2008 crisis.
const stockInitialDate = "2005-01-01"

var stockFlags struct {
	dataDir   string
	market    string
	startDate string
	endDate   string
	overwrite bool
	latest    bool
}

var stockMarkets = map[string]krx.Market{
	"kospi":  krx.MarketKospi,
	"kosdaq": krx.MarketKosdaq,
}

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Snapshot daily all-instrument stock quotes for one market",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		market, ok := stockMarkets[stockFlags.market]
		if !ok {
			return eris.Errorf("unknown market %q (want kospi or kosdaq)", stockFlags.market)
		}

		start, end, err := resolveRange(stockFlags.startDate, stockFlags.endDate, stockInitialDate)
		if err != nil {
			return err
		}

		dataDir := stockFlags.dataDir
		marketDir := filepath.Join(dataDir, "stock", stockFlags.market)
		if stockFlags.latest {
			if err := os.MkdirAll(marketDir, 0o755); err != nil {
				return eris.Wrapf(err, "create market dir %s", marketDir)
			}
		} else {
			if err := snapshot.PrepareYearDirs(cfg.KRX.FirstYear, filepath.Join(marketDir, "quotes")); err != nil {
				return err
			}
		}

		client := newKRXClient()
		category := "stock-" + stockFlags.market

		return withRunLog(ctx, dataDir, category, start, end, func(ctx context.Context) (snapshot.Tally, error) {
			// The catalog is the only place the ISIN-to-ticker mapping
			// lives, so it is refreshed on every run.
			params := map[string]string{"mktId": string(market), "share": "1"}
			if err := writeCatalog(ctx, client, krx.StockCatalog, params,
				filepath.Join(marketDir, "catalog.csv")); err != nil {
				return snapshot.Tally{}, err
			}

			mode := snapshot.ScanAll
			if stockFlags.latest {
				mode = snapshot.ScanUntilFirstHit
			}
			w := &snapshot.Walker{
				Job: &snapshot.StockJob{
					Client:     client,
					DataDir:    dataDir,
					Market:     market,
					MarketName: stockFlags.market,
					Latest:     stockFlags.latest,
				},
				Mode:      mode,
				Overwrite: stockFlags.overwrite,
				Settle:    settleDelay(),
			}
			return w.Run(ctx, start, end)
		})
	},
}

func init() {
	stockCmd.Flags().StringVar(&stockFlags.dataDir, "data-dir", "", "data directory")
	stockCmd.Flags().StringVar(&stockFlags.market, "market", "", "market: kospi or kosdaq")
	stockCmd.Flags().StringVar(&stockFlags.startDate, "start-date", "", "first date, KST (default "+stockInitialDate+")")
	stockCmd.Flags().StringVar(&stockFlags.endDate, "end-date", "", "last date, KST (default today)")
	stockCmd.Flags().BoolVar(&stockFlags.overwrite, "overwrite", false, "re-fetch dates whose artifacts exist")
	stockCmd.Flags().BoolVar(&stockFlags.latest, "latest", false, "scan newest-first and keep only the latest trading day")
	stockCmd.MarkFlagRequired("data-dir") //nolint:errcheck
	stockCmd.MarkFlagRequired("market")   //nolint:errcheck
	rootCmd.AddCommand(stockCmd)
}
