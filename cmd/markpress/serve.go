package main

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/CageChen/markpress/internal/handler"
	"github.com/CageChen/markpress/internal/watcher"
)

var (
	servePort  int
	serveOpen  bool
	serveWatch bool
	serveSave  bool
	serveAlias string
)

var serveCmd = &cobra.Command{
	Use:   "serve [folder...]",
	Short: "Serve the pages over HTTP with live reload",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP server port")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open browser on startup")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "reload pages when files change")
	serveCmd.Flags().BoolVar(&serveSave, "save", false, "remember the given folders in the config file")
	serveCmd.Flags().StringVar(&serveAlias, "alias", "", "alias for a single folder argument")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	for _, dir := range args {
		alias := ""
		if len(args) == 1 {
			alias = serveAlias
		}
		if err := cfg.AddFolder(dir, alias, nil); err != nil {
			return err
		}
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if cmd.Flags().Changed("open") {
		cfg.Open = serveOpen
	}
	if cmd.Flags().Changed("watch") {
		cfg.Watch = serveWatch
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if serveSave {
		if err := cfg.Save(); err != nil {
			return err
		}
		log.Printf("Saved config to %s", cfg.GetConfigFilePath())
	}

	s := newSite(cfg)

	log.Printf("markpress - Markdown pages")
	log.Printf("Config file: %s", cfg.GetConfigFilePath())
	log.Printf("Serving %d source(s):", len(s.Library().Sources()))
	for i, src := range s.Library().Sources() {
		if src.Dir == "" {
			log.Printf("  [%d] %s (built in)", i, src.Alias)
		} else {
			log.Printf("  [%d] %s -> %s", i, src.Alias, src.Dir)
		}
	}
	log.Printf("Server starting at: http://localhost:%d", cfg.Port)

	wsHandler := handler.NewWSHandler()

	if cfg.Watch {
		w, err := watcher.New(s.Library())
		if err != nil {
			log.Printf("Warning: failed to create file watcher: %v", err)
		} else {
			w.OnChange(s.OnFileChange)
			w.OnChange(wsHandler.OnFileChange)
			if err := w.Start(); err != nil {
				log.Printf("Warning: failed to start file watcher: %v", err)
			}
			defer func() { _ = w.Stop() }()
			log.Printf("File watcher enabled")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(s, wsHandler, cfg.WasmDir)

	if cfg.Open {
		go openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	}

	return r.Run(fmt.Sprintf(":%d", cfg.Port))
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}
