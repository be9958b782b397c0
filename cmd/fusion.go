package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openkrx/krxsnap/internal/csvio"
	"github.com/openkrx/krxsnap/internal/fusion"
)

var fusionFlags struct {
	dataDir string
	xlsx    bool
}

var fusionCmd = &cobra.Command{
	Use:   "fusion",
	Short: "Join the ETF catalog against the fee disclosure",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := fusionFlags.dataDir

		products, err := csvio.ReadArtifact(filepath.Join(dataDir, "etf", "catalog.csv"))
		if err != nil {
			return err
		}
		fees, err := csvio.ReadArtifact(filepath.Join(dataDir, "kofia", "fees.csv"))
		if err != nil {
			return err
		}

		rows := fusion.Fuse(products, fees)

		text, err := csvio.Encode(fusion.Headers, rows)
		if err != nil {
			return err
		}
		if err := csvio.WriteArtifact(filepath.Join(dataDir, "fused.csv"), text); err != nil {
			return err
		}

		if fusionFlags.xlsx {
			return fusion.WriteXLSX(filepath.Join(dataDir, "fused.xlsx"), rows)
		}
		return nil
	},
}

func init() {
	fusionCmd.Flags().StringVar(&fusionFlags.dataDir, "data-dir", "", "data directory")
	fusionCmd.Flags().BoolVar(&fusionFlags.xlsx, "xlsx", false, "also write a spreadsheet copy")
	fusionCmd.MarkFlagRequired("data-dir") //nolint:errcheck
	rootCmd.AddCommand(fusionCmd)
}
