package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/depscope/depscope-mcp/internal/analysis"
	"github.com/depscope/depscope-mcp/internal/barrel"
	"github.com/depscope/depscope-mcp/internal/config"
	"github.com/depscope/depscope-mcp/internal/crawler"
	"github.com/depscope/depscope-mcp/internal/enhance"
	"github.com/depscope/depscope-mcp/internal/graph"
	"github.com/depscope/depscope-mcp/internal/lsp"
	"github.com/depscope/depscope-mcp/internal/tools"
	"github.com/depscope/depscope-mcp/internal/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	var (
		showVersion = flag.Bool("version", false, "print version and exit")
		configPath  = flag.String("config", "", "path to depscope.yaml")
		workspace   = flag.String("workspace", "", "workspace root (overrides config)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("depscope-mcp", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config err=%v", err)
	}
	if *workspace != "" {
		cfg.Workspace = *workspace
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := graph.NewStore()
	analyzer := barrel.NewAnalyzer(store)
	crawl := crawler.New(store, analyzer, cfg.Workspace, crawler.Options{
		Workers:     cfg.Crawl.Workers,
		Ignore:      cfg.Ignore,
		MaxFileSize: cfg.Crawl.MaxFileSize,
	})
	if _, err := crawl.Run(ctx); err != nil {
		log.Fatalf("crawl err=%v", err)
	}
	analysis.Run(store, analyzer)

	var provider lsp.Provider
	if cfg.LSP.Enabled && cfg.LSP.Command != "" {
		client, lspErr := lsp.NewClient(ctx, cfg.Workspace, cfg.LSP.Command, cfg.LSP.Args...)
		if lspErr != nil {
			log.Printf("lsp unavailable err=%v", lspErr)
		} else {
			provider = client
			defer client.Close()
		}
	}
	enhancer := enhance.New(store, provider)

	if cfg.Watch.Enabled {
		w := watcher.New(cfg.Workspace, crawler.DiscoverOptions{
			Ignore:      cfg.Ignore,
			MaxFileSize: cfg.Crawl.MaxFileSize,
		}, crawl, func(changed []string) {
			for _, rel := range changed {
				enhancer.ClearFileCache(rel)
			}
			analysis.Run(store, analyzer)
		}, time.Duration(cfg.Watch.Interval)*time.Second)
		go w.Run(ctx)
	}

	srv := tools.NewServer(store, analyzer, enhancer, crawl, cfg.Workspace)
	if err := srv.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("server err=%v", err)
	}
}
