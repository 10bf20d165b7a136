package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/livereload"
	"github.com/ziadkadry99/dirsite/internal/progress"
	"github.com/ziadkadry99/dirsite/internal/server"
	"github.com/ziadkadry99/dirsite/internal/site"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site and its search endpoint",
	Long: `Builds the site, then serves it together with the search endpoint, health
and metrics endpoints. With --watch, source changes trigger a rebuild and open
pages reload themselves.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides server.port)")
	serveCmd.Flags().Bool("watch", false, "rebuild on source changes and live-reload the browser")
	serveCmd.Flags().Bool("open", false, "open browser automatically")
	serveCmd.Flags().Bool("no-build", false, "serve the existing output directory without building")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	watch, _ := cmd.Flags().GetBool("watch")
	open, _ := cmd.Flags().GetBool("open")
	noBuild, _ := cmd.Flags().GetBool("no-build")

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := site.OptionsFromConfig(cfg)
	opts.LiveReload = watch
	rebuild := func(ctx context.Context) error {
		_, err := generateSite(ctx, store, opts, false, progress.Nop{}, log)
		return err
	}
	if !noBuild || watch {
		if _, err := generateSite(ctx, store, opts, false, progress.NewReporter("Building site"), log); err != nil {
			return err
		}
	}

	srv := server.New(server.ConfigFrom(cfg), store, log)

	if watch {
		hub := livereload.NewHub(log)
		srv.Router().Get("/livereload", hub.ServeHTTP)
		w := &livereload.Watcher{Root: cfg.SourceDir, Rebuild: rebuild, Hub: hub, Logger: log}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("watcher stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	fmt.Fprintf(os.Stderr, "dirsite %s serving %s at %s (search: POST %s)\n", Version, cfg.OutputDir, url, cfg.Server.SearchPath)
	if open {
		go openBrowser(url)
	}

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
