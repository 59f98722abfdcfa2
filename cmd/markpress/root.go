package main

import (
	"github.com/spf13/cobra"

	"github.com/CageChen/markpress/internal/config"
	"github.com/CageChen/markpress/internal/content"
	"github.com/CageChen/markpress/internal/markdown"
	"github.com/CageChen/markpress/internal/site"
)

var (
	cfgFile    string
	showDrafts bool
	style      string
)

var rootCmd = &cobra.Command{
	Use:   "markpress",
	Short: "Blog and tutorial pages rendered from Markdown",
	Long: `markpress renders a library of Markdown posts and tutorials into styled
pages with highlighted code, copy buttons, an outline and a reading
progress bar. Serve them live or export a static site.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/markpress/config.yaml or ./markpress.yaml)")
	rootCmd.PersistentFlags().BoolVar(&showDrafts, "drafts", false, "include draft pages")
	rootCmd.PersistentFlags().StringVar(&style, "style", "", "code highlighting style")
}

// loadConfig reads the config file and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.Find(cfgFile), cfgFile != "")
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("drafts") {
		cfg.ShowDrafts = showDrafts
	}
	if style != "" {
		cfg.Style = style
	}
	return cfg, nil
}

// newLibrary builds the page library described by cfg.
func newLibrary(cfg *config.Config) *content.Library {
	var sources []content.Source
	if cfg.Builtin {
		sources = append(sources, content.Embedded())
	}
	for _, f := range cfg.Folders {
		sources = append(sources, content.Dir(f.Path, f.Alias, f.Exclude))
	}
	return content.NewLibrary(content.Options{
		Extensions: cfg.Extensions,
		Exclude:    cfg.Exclude,
		ShowDrafts: cfg.ShowDrafts,
	}, sources...)
}

func newRenderer(cfg *config.Config) *markdown.Renderer {
	return markdown.NewRenderer(markdown.Options{
		Style:       cfg.Style,
		ImageWidth:  cfg.ImageWidth,
		ImageHeight: cfg.ImageHeight,
	})
}

func newSite(cfg *config.Config) *site.Site {
	return site.New(newLibrary(cfg), newRenderer(cfg), site.Options{
		Title:      cfg.SiteTitle,
		BaseURL:    cfg.BaseURL,
		Wasm:       cfg.WasmDir != "",
		LiveReload: cfg.Watch,
	})
}
