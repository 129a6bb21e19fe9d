package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/justyntemme/scour/internal/dispatch"
	"github.com/justyntemme/scour/internal/filter"
	"github.com/justyntemme/scour/internal/search"
	"github.com/justyntemme/scour/internal/task"
)

// completion closes done exactly once. The index-disabled path renders empty
// results and warns, so sink and notifier share one instance.
type completion struct {
	once sync.Once
	done chan struct{}
}

func (c *completion) signal() {
	c.once.Do(func() { close(c.done) })
}

// cliSink prints results and signals completion of the dispatched operation.
type cliSink struct {
	c    *completion
	long bool
}

func (s *cliSink) ShowResults(entries []search.Entry, highlight string) {
	for _, e := range entries {
		if s.long && e.IsFile {
			fmt.Printf("%-10s %s\n", humanize.Bytes(uint64(e.Size)), e.Path)
		} else {
			fmt.Println(e.Path)
		}
	}
	fmt.Fprintf(os.Stderr, "%d results\n", len(entries))
	s.c.signal()
}

// cliNotifier routes notices to stderr. Any notice terminates the command,
// since a CLI search dispatches exactly once.
type cliNotifier struct {
	c      *completion
	failed bool
}

func (n *cliNotifier) finish(prefix, msg string, failed bool) {
	fmt.Fprintln(os.Stderr, prefix+msg)
	n.failed = n.failed || failed
	n.c.signal()
}

func (n *cliNotifier) Info(msg string)  { n.finish("", msg, false) }
func (n *cliNotifier) Warn(msg string)  { n.finish("warning: ", msg, false) }
func (n *cliNotifier) Error(msg string) { n.finish("error: ", msg, true) }

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for files matching a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()

		dir, _ := cmd.Flags().GetString("dir")
		global, _ := cmd.Flags().GetBool("global")
		content, _ := cmd.Flags().GetBool("content")
		regex, _ := cmd.Flags().GetBool("regex")
		long, _ := cmd.Flags().GetBool("long")

		filters, err := filtersFromFlags(cmd)
		if err != nil {
			return err
		}

		if dir == "" && !global {
			if dir, err = os.Getwd(); err != nil {
				return err
			}
		}

		idx, err := openIndex(cfg)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer idx.Close()

		hist, err := openHistory(cfg)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		if hist != nil {
			defer hist.Close()
		}

		c := &completion{done: make(chan struct{})}
		sink := &cliSink{c: c, long: long}
		notify := &cliNotifier{c: c}

		local := task.NewWalkRunner(idx)
		d := dispatch.New(dispatch.Deps{
			Local:   local,
			Indexer: task.Select(task.NewIndexRunner(idx), local),
			Sink:    sink,
			Notify:  notify,
			History: hist,
		}, dispatch.Options{
			Debounce:   time.Duration(cfg.Search.DebounceMs) * time.Millisecond,
			ContentCap: cfg.Search.ContentScanCap,
		})

		d.SetLocation(dir)
		d.OpenSearch(global)
		d.SetContentSearch(content)
		d.SetRegexMode(regex || cfg.Search.RegexDefault)
		d.SetQuery(args[0])

		edit := d.EditFilters()
		*edit = *filters
		if err := d.ApplyFilters(); err != nil {
			return err
		}

		d.PerformSearch()
		<-c.done
		// The disabled-index path warns right after rendering empty results;
		// give that trailing notice a moment to reach stderr.
		time.Sleep(10 * time.Millisecond)

		if notify.failed {
			os.Exit(1)
		}
		return nil
	},
}

// filtersFromFlags parses the filter flags into a filter set. Sizes accept
// humanized forms like 10MB; dates are YYYY-MM-DD.
func filtersFromFlags(cmd *cobra.Command) (*filter.Filters, error) {
	f := &filter.Filters{}

	if v, _ := cmd.Flags().GetString("type"); v != "" {
		f.FileType = v
	}
	if v, _ := cmd.Flags().GetString("min-size"); v != "" {
		n, err := humanize.ParseBytes(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --min-size %q: %w", v, err)
		}
		f.MinSize = &n
	}
	if v, _ := cmd.Flags().GetString("max-size"); v != "" {
		n, err := humanize.ParseBytes(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-size %q: %w", v, err)
		}
		f.MaxSize = &n
	}
	if v, _ := cmd.Flags().GetString("after"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid --after %q: %w", v, err)
		}
		f.DateFrom = &t
	}
	if v, _ := cmd.Flags().GetString("before"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid --before %q: %w", v, err)
		}
		f.DateTo = &t
	}
	return f, nil
}

func init() {
	searchCmd.Flags().StringP("dir", "d", "", "directory to search (default: current directory)")
	searchCmd.Flags().BoolP("global", "g", false, "search the background index instead of one directory")
	searchCmd.Flags().BoolP("content", "c", false, "match file contents as well as names")
	searchCmd.Flags().BoolP("regex", "r", false, "interpret the query as a regular expression")
	searchCmd.Flags().BoolP("long", "l", false, "show file sizes")
	searchCmd.Flags().StringP("type", "t", "", "file type category (document, image, video, audio, archive, code, text)")
	searchCmd.Flags().String("min-size", "", "minimum file size, e.g. 10KB")
	searchCmd.Flags().String("max-size", "", "maximum file size, e.g. 1GB")
	searchCmd.Flags().String("after", "", "only files modified on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().String("before", "", "only files modified on or before this date (YYYY-MM-DD)")
}
