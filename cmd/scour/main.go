package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justyntemme/scour/internal/config"
	"github.com/justyntemme/scour/internal/debug"
	"github.com/justyntemme/scour/internal/fs"
	"github.com/justyntemme/scour/internal/history"
	"github.com/justyntemme/scour/internal/index"
)

var (
	cfgFile   string
	debugCats string

	cfgMgr = config.NewManager()
)

var rootCmd = &cobra.Command{
	Use:   "scour",
	Short: "Search files by name and content, locally or through the background index",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugCats != "" {
			for _, c := range strings.Split(debugCats, ",") {
				c = strings.TrimSpace(strings.ToUpper(c))
				if c == "ALL" {
					debug.EnableAll()
					continue
				}
				debug.Enable(debug.Category(c))
			}
		}
		if cfgFile != "" {
			return cfgMgr.LoadFrom(cfgFile)
		}
		return cfgMgr.Load()
	},
}

// dbPath resolves the database location from config, falling back to the
// default under ~/.config/scour.
func dbPath(cfg config.Config) string {
	if cfg.Index.DBPath != "" {
		return cfg.Index.DBPath
	}
	return config.DefaultDBPath()
}

// openIndex opens the index with the configured capability flags. The handle
// is valid even when indexing is disabled; queries then report the disabled
// condition instead of failing at open.
func openIndex(cfg config.Config) (*index.Index, error) {
	roots := cfg.Index.Roots
	if len(roots) == 0 {
		roots = fs.DefaultRoots()
	}
	return index.Open(dbPath(cfg), index.Options{
		Enabled:       cfg.Index.Enabled,
		ContentSearch: cfg.Index.ContentSearch,
		Roots:         roots,
		ContentCap:    cfg.Search.PreviewScanCap,
	})
}

func openHistory(cfg config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(dbPath(cfg), cfg.History.MaxEntries)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/scour/config.json)")
	rootCmd.PersistentFlags().StringVar(&debugCats, "debug", "", "debug log categories, comma-separated or 'all'")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
