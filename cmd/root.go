package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/openkrx/krxsnap/internal/config"
	"github.com/openkrx/krxsnap/internal/dates"
	"github.com/openkrx/krxsnap/internal/krx"
	"github.com/openkrx/krxsnap/internal/runlog"
	"github.com/openkrx/krxsnap/internal/snapshot"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "krxsnap",
	Short: "Exchange statistics and fund-fee snapshot crawler",
	Long:  "Crawls the KRX statistics portal and the KOFIA fund-fee disclosure, normalizes the tabular results, and persists CSV snapshots for the table viewer.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newKRXClient() *krx.Client {
	return krx.New(krx.Options{
		BaseURL:   cfg.KRX.BaseURL,
		Referer:   cfg.KRX.Referer,
		UserAgent: cfg.KRX.UserAgent,
		Rate:      rate.Limit(cfg.KRX.Rate),
	})
}

func settleDelay() time.Duration {
	return time.Duration(cfg.KRX.SettleMillis) * time.Millisecond
}

// resolveRange fills flag defaults: start falls back to the category's
// initial date, end to today in KST.
func resolveRange(startFlag, endFlag string, initial dates.Date) (dates.Date, dates.Date, error) {
	start := initial
	if startFlag != "" {
		d, err := dates.Parse(startFlag)
		if err != nil {
			return "", "", err
		}
		start = d
	}
	end := dates.Today()
	if endFlag != "" {
		d, err := dates.Parse(endFlag)
		if err != nil {
			return "", "", err
		}
		end = d
	}
	return start, end, nil
}

// withRunLog records the run in the local run log around fn. Run-log
// failures are logged but never abort a crawl.
func withRunLog(ctx context.Context, dataDir, category string, start, end dates.Date, fn func(context.Context) (snapshot.Tally, error)) error {
	log := zap.L().With(zap.String("category", category))

	rl, err := runlog.Open(filepath.Join(dataDir, "krxsnap.db"))
	if err != nil {
		return err
	}
	defer rl.Close() //nolint:errcheck

	id, err := rl.Start(ctx, category, string(start), string(end))
	if err != nil {
		return err
	}

	tally, err := fn(ctx)
	if err != nil {
		if logErr := rl.Fail(ctx, id, err.Error()); logErr != nil {
			log.Error("failed to record run failure", zap.Error(logErr))
		}
		return err
	}

	if err := rl.Complete(ctx, id, tally); err != nil {
		log.Error("failed to record run completion", zap.Error(err))
	}
	log.Info("run complete",
		zap.Int("saved", tally.Saved),
		zap.Int("exists", tally.Exists),
		zap.Int("empty", tally.Empty),
		zap.Int("holiday", tally.Holiday),
		zap.Int("weekend", tally.Weekend),
	)
	return nil
}
