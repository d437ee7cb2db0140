// Command uvls is the UVL language server's entry point: an LSP server
// over stdio, a background file watcher for documents the editor hasn't
// opened itself, and a companion MCP tool surface for AI assistants.
// Grounded on standardbeagle-lci/cmd/lci/main.go's cli.App shape (flag
// set, signal.Notify/context-cancel shutdown, app.Run(os.Args)), with
// the LSP transport wiring itself grounded on
// teranos-QNTX/server/lsp_handler.go's protocol.Handler{...} struct
// literal and glspserver.NewServer(&handler, name, debug) construction.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"github.com/urfave/cli/v2"

	"github.com/Koenneker/uvl-lsp/internal/cfgfile"
	"github.com/Koenneker/uvl-lsp/internal/debug"
	"github.com/Koenneker/uvl-lsp/internal/document"
	"github.com/Koenneker/uvl-lsp/internal/logging"
	"github.com/Koenneker/uvl-lsp/internal/lspserver"
	"github.com/Koenneker/uvl-lsp/internal/mcpface"
	"github.com/Koenneker/uvl-lsp/internal/pipeline"
	"github.com/Koenneker/uvl-lsp/internal/workspace"
)

func main() {
	app := &cli.App{
		Name:                   "uvls",
		Usage:                  "Incremental language server for the UVL feature-modeling language",
		Version:                lspserver.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "Workspace root to watch and load .uvls.kdl from (defaults to the current directory)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (overrides .uvls.kdl's log_level)",
			},
			&cli.BoolFlag{
				Name:  "mcp",
				Usage: "Also serve the read-only MCP tool surface over a second stdio pair (fd 3/4)",
			},
		},
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "uvls: %v\n", err)
		os.Exit(1)
	}
}

func runServer(c *cli.Context) error {
	// The LSP transport owns stdio for the lifetime of this process, so
	// internal/debug must never write trace output there even if DEBUG
	// is set in the environment.
	debug.SetStdioMode(true)

	root := c.String("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("uvls: resolving working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("uvls: resolving root %q: %w", root, err)
	}

	cfg, err := cfgfile.Load(root)
	if err != nil {
		return err
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("uvls: building logger: %w", err)
	}
	defer logger.Sync()

	isConfig := configGlobMatcher(cfg.ConfigFileGlobs)
	p := pipeline.New(isConfig)
	defer p.Shutdown()

	watcher, err := workspace.New(cfg.Root, []string{"**/*.uvl", "**/*.uvl.json"}, cfg.Exclude, p)
	if err != nil {
		return fmt.Errorf("uvls: starting workspace watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("uvls: watching %s: %w", cfg.Root, err)
	}
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if c.Bool("mcp") {
		mcpSrv := mcpface.New(p)
		go func() {
			if err := mcpSrv.Run(ctx); err != nil {
				logger.Warnw("mcp facade stopped", "error", err)
			}
		}()
	}

	handler := lspserver.New(p, logger)
	go handler.RunDiagnostics(ctx)

	protocolHandler := protocol.Handler{
		Initialize:                          handler.Initialize,
		Initialized:                         handler.Initialized,
		Shutdown:                            handler.Shutdown,
		TextDocumentDidOpen:                 handler.TextDocumentDidOpen,
		TextDocumentDidChange:               handler.TextDocumentDidChange,
		TextDocumentDidClose:                handler.TextDocumentDidClose,
		TextDocumentSemanticTokensFull:      handler.TextDocumentSemanticTokensFull,
		TextDocumentSemanticTokensFullDelta: handler.TextDocumentSemanticTokensFullDelta,
	}
	glspServer := glspserver.NewServer(&protocolHandler, lspserver.Name, false)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- glspServer.RunStdio()
	}()

	select {
	case err := <-serverErr:
		return err
	case sig := <-sigChan:
		logger.Infow("received signal, shutting down", "signal", sig.String())
		cancel()
		select {
		case <-serverErr:
		case <-time.After(2 * time.Second):
			logger.Warnw("transport loop did not exit within the shutdown grace period")
		}
		return nil
	}
}

func configGlobMatcher(globs []string) document.IsConfig {
	return func(uri string) bool {
		rel := filepath.ToSlash(uri)
		for _, pattern := range globs {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return true
			}
		}
		return document.DefaultIsConfig(uri)
	}
}
