package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/CageChen/markpress/internal/site"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every page to a static site directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := newSite(cfg).Export(exportOut, cfg.WasmDir, site.NewReporter()); err != nil {
			return err
		}
		log.Printf("Exported site to %s", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "public", "output directory")
	rootCmd.AddCommand(exportCmd)
}
