package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openkrx/krxsnap/internal/csvio"
	"github.com/openkrx/krxsnap/internal/dates"
	"github.com/openkrx/krxsnap/internal/kofia"
	"github.com/openkrx/krxsnap/internal/snapshot"
)

var kofiaFlags struct {
	dataDir string
}

var kofiaCmd = &cobra.Command{
	Use:   "kofia",
	Short: "Snapshot the fund fee and expense disclosure",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dataDir := kofiaFlags.dataDir
		outDir := filepath.Join(dataDir, "kofia")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrapf(err, "create kofia dir %s", outDir)
		}

		client := kofia.New(kofia.Options{
			URL:       cfg.KOFIA.URL,
			UserAgent: cfg.KRX.UserAgent,
		})

		return withRunLog(ctx, dataDir, "kofia", "", "", func(ctx context.Context) (snapshot.Tally, error) {
			return fetchFees(ctx, client, outDir)
		})
	},
}

// fetchFees walks back through month ends until the disclosure answers.
// Disclosure lags: queried at the start of a month, the previous month
// end often has no data yet while the one before does. The artifact is
// fully rewritten on every successful fetch.
func fetchFees(ctx context.Context, client *kofia.Client, outDir string) (snapshot.Tally, error) {
	log := zap.L().With(zap.String("category", "kofia"))

	var tally snapshot.Tally
	now := time.Now().In(dates.KST)
	for n := 1; n <= cfg.KOFIA.LookbackMonths; n++ {
		date := kofia.MonthEnd(now, n)
		rows, err := client.Fetch(ctx, date, cfg.KOFIA.Filter)
		if err != nil {
			return tally, err
		}
		log.Info("fetched fee disclosure", zap.String("date", string(date)), zap.Int("count", len(rows)))
		if len(rows) == 0 {
			tally.Empty++
			continue
		}

		out := make([]map[string]any, len(rows))
		for i, row := range rows {
			out[i] = row.Record()
		}
		text, err := csvio.Encode(kofia.Headers, out)
		if err != nil {
			return tally, err
		}
		if err := csvio.WriteArtifact(filepath.Join(outDir, "fees.csv"), text); err != nil {
			return tally, err
		}
		tally.Saved++
		return tally, nil
	}

	return tally, eris.Errorf("kofia: no disclosure within %d month ends", cfg.KOFIA.LookbackMonths)
}

func init() {
	kofiaCmd.Flags().StringVar(&kofiaFlags.dataDir, "data-dir", "", "data directory")
	kofiaCmd.MarkFlagRequired("data-dir") //nolint:errcheck
	rootCmd.AddCommand(kofiaCmd)
}
