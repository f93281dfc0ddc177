// Command ctxpack is the thin CLI shell over the indexing and
// packing pipeline: "index" builds/refreshes the Store, "pack"
// resolves a task into a scored context pack, "serve" exposes both
// over MCP stdio. Grounded on the teacher's cmd/lci/main.go urfave/cli
// App structure, generalized down to this spec's three operations
// from the teacher's two dozen.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/ctxpack/internal/config"
	"github.com/standardbeagle/ctxpack/internal/discovery"
	"github.com/standardbeagle/ctxpack/internal/domains"
	"github.com/standardbeagle/ctxpack/internal/gitprobe"
	"github.com/standardbeagle/ctxpack/internal/indexer"
	"github.com/standardbeagle/ctxpack/internal/mcpserver"
	"github.com/standardbeagle/ctxpack/internal/metrics"
	"github.com/standardbeagle/ctxpack/internal/pack"
	"github.com/standardbeagle/ctxpack/internal/resolver"
	"github.com/standardbeagle/ctxpack/internal/scanner"
	"github.com/standardbeagle/ctxpack/internal/scorer"
	"github.com/standardbeagle/ctxpack/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "ctxpack",
		Usage: "task-aware code context packer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "project root to operate on",
				Value: ".",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "build or refresh the code index",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "print-hotspots", Usage: "print the top git-churn hotspots after indexing"},
				},
				Action: indexCommand,
			},
			{
				Name:  "pack",
				Usage: "resolve a task into a scored, budget-bounded context pack",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "task", Required: true, Usage: "free-text task description"},
					&cli.StringFlag{Name: "stack-trace", Usage: "path to a file containing a pasted stack trace"},
					&cli.StringFlag{Name: "diff", Usage: "path to a file containing a unified diff"},
					&cli.IntFlag{Name: "budget-tokens", Usage: "token budget override"},
				},
				Action: packCommand,
			},
			{
				Name:  "serve",
				Usage: "start the MCP server over stdio",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "metrics-addr", Usage: "optional address to expose Prometheus metrics on, e.g. :9090"},
				},
				Action: serveCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func indexCommand(c *cli.Context) error {
	root := c.String("root")
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	st, err := store.Open(store.DefaultPath(root))
	if err != nil {
		return err
	}
	defer st.Close()

	var bar *progressbar.ProgressBar
	progress := func(current, total int, path string) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "indexing")
		}
		_ = bar.Set(current)
	}

	ix, err := indexer.New(root, st, scanner.Options{
		IncludePatterns: cfg.IncludePatterns,
		ExcludePatterns: cfg.ExcludePatterns,
		MaxFileSize:     cfg.MaxFileSize,
	}, progress)
	if err != nil {
		return err
	}

	start := time.Now()
	stats, warnings, err := ix.Index(c.Context)
	if err != nil {
		return err
	}
	metrics.RecordIndex(stats.Files, stats.Symbols, len(warnings), time.Since(start).Seconds())

	fmt.Printf("\n%s %d files, %d symbols, %d imports in %dms\n",
		color.GreenString("indexed"), stats.Files, stats.Symbols, stats.Imports, stats.DurationMS)
	for _, w := range warnings {
		fmt.Println(color.YellowString("warning: " + w))
	}

	if c.Bool("print-hotspots") {
		hotspots, err := st.TopHotspots(0)
		if err != nil {
			return err
		}
		fmt.Println(color.CyanString("\nhotspots:"))
		for _, h := range hotspots {
			fmt.Printf("  %.2f  %s (%d commits)\n", h.ChurnScore, h.Path, h.CommitCount)
		}
	}
	return nil
}

func packCommand(c *cli.Context) error {
	root := c.String("root")
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	st, err := store.Open(store.DefaultPath(root))
	if err != nil {
		return err
	}
	defer st.Close()

	domainMgr, err := domains.New(cfg.CustomDomains)
	if err != nil {
		return err
	}
	res, err := resolver.New(domainMgr)
	if err != nil {
		return err
	}

	input := resolver.Input{Raw: c.String("task")}
	if p := c.String("stack-trace"); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		input.StackTrace = string(data)
	}
	if p := c.String("diff"); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		input.Diff = string(data)
	}

	task := res.Resolve(input)

	git := gitprobe.New(root)
	candidates, err := discovery.New(st, git).Discover(task)
	if err != nil {
		return err
	}

	budget := c.Int("budget-tokens")
	if budget <= 0 {
		budget = cfg.BudgetTokens
	}
	scored := scorer.New(cfg.Weights).Score(candidates, task)

	composeStart := time.Now()
	composer := pack.New(root, budget, func(path string) (string, error) {
		data, err := os.ReadFile(root + string(os.PathSeparator) + path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
	manifest, markdown, err := composer.Compose(task, scored)
	if err != nil {
		return err
	}
	metrics.RecordPack(len(candidates), len(manifest.Files), time.Since(composeStart).Seconds())

	dir, err := composer.Write(manifest, markdown, time.Now())
	if err != nil {
		return err
	}

	fmt.Println(color.GreenString("pack written to %s", dir))
	fmt.Printf("%d files, %.0f token budget\n", len(manifest.Files), float64(manifest.BudgetTokens))
	if manifest.Reason != "" {
		fmt.Println(color.YellowString(manifest.Reason))
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	root := c.String("root")
	srv, err := mcpserver.New(root)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if addr := c.String("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			_ = metricsSrv.ListenAndServe()
		}()
		go func() {
			<-ctx.Done()
			_ = metricsSrv.Close()
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return srv.Run(ctx)
}
