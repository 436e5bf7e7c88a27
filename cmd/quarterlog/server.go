package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/quarterlog/internal/api"
	"github.com/kalambet/quarterlog/internal/classify"
	"github.com/kalambet/quarterlog/internal/coach"
	"github.com/kalambet/quarterlog/internal/config"
	"github.com/kalambet/quarterlog/internal/metrics"
	"github.com/kalambet/quarterlog/internal/ollama"
	"github.com/kalambet/quarterlog/internal/pattern"
	"github.com/kalambet/quarterlog/internal/settings"
	"github.com/kalambet/quarterlog/internal/storage"
	"github.com/kalambet/quarterlog/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the quarterlog daemon (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running quarterlog daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show quarterlog system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools on stdin/stdout")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "quarterlog.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "quarterlog version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	// Refuse to start twice on the same port.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get("http://" + cfg.Server.Addr() + "/health"); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("quarterlog is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("quarterlog is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// AI is optional: without Ollama, entries are classified by keyword
	// and reports fail until it comes back.
	var (
		classifyClient classify.Chatter
		coachClient    coach.Chatter
	)
	if cfg.AI.Enabled {
		oc := ollama.New(cfg.Ollama.BaseURL)
		if err := ollama.EnsureReady(ctx, oc, os.Stderr, cfg.Ollama.FastModel, cfg.Ollama.DeepModel); err != nil {
			printWarning("AI unavailable, using keyword classification: %v", err)
		} else {
			classifyClient, coachClient = oc, oc
		}
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	m := metrics.New()
	loc := time.Local
	settingsMgr := settings.NewManager(store)
	classifier := classify.New(classifyClient, classify.Options{
		Model:             cfg.Ollama.FastModel,
		Enabled:           cfg.AI.Enabled,
		Timeout:           cfg.AI.Timeout,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		Metrics:           m,
	})
	reporter := coach.New(coachClient, cfg.Ollama.DeepModel, 0, m)

	thresholds := pattern.DefaultThresholds()
	thresholds.MinEntries = cfg.Insights.MinEntries
	svc := api.NewService(store, settingsMgr, classifier, api.ServiceConfig{
		Location:    loc,
		HistoryDays: cfg.Score.HistoryDays,
		MaxInsights: cfg.Insights.Max,
		Thresholds:  thresholds,
		Metrics:     m,
	})

	srv := &http.Server{
		Handler: api.NewAppHandler(api.AppDeps{
			Store:    store,
			Settings: settingsMgr,
			Service:  svc,
			Metrics:  m,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	listener, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Addr(), err)
	}
	listener = netutil.LimitListener(listener, cfg.Server.MaxConns)

	jobs := worker.NewWorker(store, settingsMgr, reporter, worker.Config{Location: loc, Metrics: m})
	scheduler := worker.NewScheduler(store, time.Minute, loc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "quarterlog listening on %s\n", cfg.Server.Addr())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return jobs.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Service: svc, Settings: settingsMgr, Version: version})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("quarterlog is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop quarterlog (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to quarterlog (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	client := &apiClient{
		baseURL:    "http://" + cfg.Server.Addr(),
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
	running := false
	if resp, err := client.get(ctx, "/health"); err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on %s", cfg.Server.Addr())
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if !cfg.AI.Enabled {
		printStatus("AI", "disabled")
	} else if ollama.New(cfg.Ollama.BaseURL).IsRunning(ctx) {
		printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
	} else {
		printStatus("Ollama", "not running")
	}
	printStatus("Fast model", "%s", cfg.Ollama.FastModel)
	printStatus("Deep model", "%s", cfg.Ollama.DeepModel)

	if running {
		var streak map[string]int
		if resp, err := client.get(ctx, "/streak"); err == nil && decodeJSON(resp, &streak) == nil {
			printStatus("Streak", "%s", dayCount(streak["streak"]))
		}
		var reports []struct {
			Read bool `json:"read"`
		}
		if resp, err := client.get(ctx, "/reports?limit=100"); err == nil && decodeJSON(resp, &reports) == nil {
			unread := 0
			for _, r := range reports {
				if !r.Read {
					unread++
				}
			}
			printStatus("Unread reports", "%d", unread)
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
