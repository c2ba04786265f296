// Command hebrag indexes Hebrew PDF documents and answers questions over
// them from the terminal or over HTTP.
//
//	hebrag index [-out base] file.pdf=doc_id ...
//	hebrag ask [-top 7] [question]
//	hebrag serve
//	hebrag mcp
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sameertanveer602-cmyk/Hebrew/engine"
	"github.com/sameertanveer602-cmyk/Hebrew/ingest"
	"github.com/sameertanveer602-cmyk/Hebrew/ingest/web"
	"github.com/sameertanveer602-cmyk/Hebrew/internal/app"
	"github.com/sameertanveer602-cmyk/Hebrew/internal/config"
	"github.com/sameertanveer602-cmyk/Hebrew/internal/server"
	"github.com/sameertanveer602-cmyk/Hebrew/internal/tui"
	"github.com/sameertanveer602-cmyk/Hebrew/mcp"
)

const usage = `usage:
  hebrag index [-out base] file.pdf=doc_id|https://url=doc_id ...
  hebrag ask [-top 7] [question]
  hebrag serve
  hebrag mcp`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "hebrag %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(os.Getenv("HEBRAG_CONFIG"))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(shutCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	switch cmd {
	case "index":
		return runIndex(ctx, a, args)
	case "ask":
		return runAsk(ctx, a, args)
	case "serve":
		return runServe(ctx, a)
	case "mcp":
		return runMCP(ctx, a)
	default:
		return fmt.Errorf("unknown command\n%s", usage)
	}
}

// runIndex ingests every path=doc_id pair and saves the index once at the
// end. URLs are fetched and indexed as web pages.
func runIndex(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	out := fs.String("out", a.Config.Index.Path, "index base path")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("no documents given")
	}

	fetcher := web.New(web.WithLogger(a.Logger))
	for _, arg := range fs.Args() {
		path, docID, ok := strings.Cut(arg, "=")
		if !ok || docID == "" {
			docID = path
		}
		var n int
		var err error
		if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			page, ferr := fetcher.Fetch(ctx, path)
			if ferr != nil {
				return ferr
			}
			n, err = a.Engine.AddLogicalText(ctx, page.Text, docID, map[string]any{"url": path},
				ingest.DefaultTextChunkSize, ingest.DefaultTextChunkOverlap)
		} else {
			n, err = a.Engine.AddDocument(ctx, path, docID)
		}
		if err != nil {
			return err
		}
		a.Instruments.RecordIngest(ctx, docID, "cli", n)
		fmt.Printf("%s: %d chunks\n", docID, n)
	}

	if err := a.Engine.Save(*out); err != nil {
		return err
	}
	fmt.Printf("saved %d chunks to %s\n", a.Engine.Len(), *out)
	return nil
}

// runAsk answers one question, or opens the interactive prompt when none
// is given.
func runAsk(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	top := fs.Int("top", engine.DefaultTopK, "number of chunks to retrieve")
	fs.Parse(args)

	loaded, err := a.LoadIndex()
	if err != nil {
		return err
	}
	if !loaded {
		return fmt.Errorf("no index at %s; run hebrag index first", a.Config.Index.Path)
	}

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		summary := fmt.Sprintf("%d chunks, provider %s", a.Engine.Len(), a.Engine.ProviderName())
		return tui.Run(a.Engine, *top, summary)
	}

	res, err := a.Engine.Search(ctx, question, *top)
	if err != nil {
		return err
	}
	fmt.Println(res.Answer)
	fmt.Println()
	for i, s := range res.Sources {
		fmt.Printf("[%d] %v p.%v  distance=%.4f\n", i+1, s.Fields["doc_id"], s.Fields["page"], s.Score)
	}
	return nil
}

func runServe(ctx context.Context, a *app.App) error {
	if _, err := a.LoadIndex(); err != nil {
		return err
	}
	sessions, err := a.OpenSessions(ctx)
	if err != nil {
		return err
	}
	defer sessions.Close()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if _, err := sessions.Prune(ctx, now); err != nil {
					a.Logger.Warn("prune sessions", "error", err)
				}
			}
		}
	}()

	s := server.New(a.Engine,
		server.WithSessions(sessions),
		server.WithIndexPath(a.Config.Index.Path),
		server.WithInstruments(a.Instruments),
		server.WithLogger(a.Logger))
	srv := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", "addr", srv.Addr, "provider", a.Engine.ProviderName(), "chunks", a.Engine.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.Logger.Info("stopped")
	return nil
}

// runMCP serves the loaded index to an MCP client on stdin and stdout.
// Logs stay on stderr so they never mix with protocol frames.
func runMCP(ctx context.Context, a *app.App) error {
	loaded, err := a.LoadIndex()
	if err != nil {
		return err
	}
	if !loaded {
		a.Logger.Warn("serving an empty index", "path", a.Config.Index.Path)
	}
	return mcp.New(a.Engine, mcp.WithLogger(a.Logger)).Serve(ctx)
}
