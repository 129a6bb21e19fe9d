package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/justyntemme/scour/internal/fs"
	"github.com/justyntemme/scour/internal/index"
	"github.com/justyntemme/scour/internal/search"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the background file index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the configured roots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()
		idx, err := openIndex(cfg)
		if err != nil {
			return err
		}
		defer idx.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "indexing %d roots...\n", len(cfg.Index.Roots))
		if err := idx.Rebuild(ctx); err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(os.Stderr, "interrupted; previous index contents kept")
				return nil
			}
			return err
		}

		st := idx.Status()
		fmt.Printf("indexed %s entries\n", humanize.Comma(st.TotalFiles))
		return nil
	},
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index state and entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()
		idx, err := openIndex(cfg)
		if err != nil {
			return err
		}
		defer idx.Close()

		if !idx.Enabled() {
			fmt.Println("index: disabled")
			return nil
		}

		st := idx.Status()
		fmt.Println("index: enabled")
		fmt.Printf("content search: %v\n", idx.ContentSearchEnabled())
		fmt.Printf("database: %s\n", dbPath(cfg))
		fmt.Printf("entries: %s\n", humanize.Comma(st.TotalFiles))
		if st.IsIndexing {
			fmt.Printf("rebuild in progress: %s entries so far\n", humanize.Comma(st.IndexedFiles))
		} else if !st.LastIndexTime.IsZero() {
			fmt.Printf("last rebuild: %s\n", humanize.Time(st.LastIndexTime))
		}
		return nil
	},
}

var indexWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the configured roots and keep the index current",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()
		idx, err := openIndex(cfg)
		if err != nil {
			return err
		}
		defer idx.Close()

		if !idx.Enabled() {
			return search.ErrIndexDisabled
		}

		w, err := index.NewWatcher(idx, cfg.Index.WatchDebounceMs)
		if err != nil {
			return err
		}
		defer w.Close()

		for _, root := range cfg.Index.Roots {
			if err := w.Watch(root); err != nil {
				fmt.Fprintf(os.Stderr, "watch %s: %v\n", root, err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintln(os.Stderr, "watching; ctrl-c to stop")
		for {
			select {
			case dir := <-w.Notify():
				fmt.Fprintf(os.Stderr, "refreshed %s\n", dir)
			case <-ctx.Done():
				return nil
			}
		}
	},
}

var indexEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn background indexing on",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgMgr.SetIndexEnabled(true)
		if content, _ := cmd.Flags().GetBool("content"); content {
			cfgMgr.SetContentSearch(true)
		}
		fmt.Println("indexing enabled; run 'scour index rebuild' to populate it")
		return nil
	},
}

var indexDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn background indexing off",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgMgr.SetIndexEnabled(false)
		fmt.Println("indexing disabled")
		return nil
	},
}

var indexRootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "List mounted volumes that could serve as index roots",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cfgMgr.Get()
		configured := make(map[string]bool, len(cfg.Index.Roots))
		for _, r := range cfg.Index.Roots {
			configured[r] = true
		}
		for _, r := range fs.Roots() {
			marker := " "
			if configured[r.Path] {
				marker = "*"
			}
			fmt.Printf("%s %-20s %s\n", marker, r.Name, r.Path)
		}
	},
}

func init() {
	indexEnableCmd.Flags().Bool("content", false, "also index file contents for global content search")

	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexWatchCmd)
	indexCmd.AddCommand(indexEnableCmd)
	indexCmd.AddCommand(indexDisableCmd)
	indexCmd.AddCommand(indexRootsCmd)
}
