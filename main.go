package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/infra/auth"
	"github.com/CrestNiraj12/terminalmeme/infra/config"
	"github.com/CrestNiraj12/terminalmeme/infra/live"
	"github.com/CrestNiraj12/terminalmeme/infra/localstore"
	"github.com/CrestNiraj12/terminalmeme/infra/memeapi"
	"github.com/CrestNiraj12/terminalmeme/infra/postgres"
	"github.com/CrestNiraj12/terminalmeme/infra/price"
	"github.com/CrestNiraj12/terminalmeme/infra/report"
	"github.com/CrestNiraj12/terminalmeme/infra/wallet"
	"github.com/CrestNiraj12/terminalmeme/tui"
	"github.com/CrestNiraj12/terminalmeme/tui/common"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	priceRefreshEvery = 30 * time.Second
	reconcileGroup    = "terminalmeme-reconcile"
	reconcileIdle     = 15 * time.Second
)

type cliMode int

const (
	cliRun cliMode = iota
	cliReconcile
	cliVersion
	cliHelp
	cliInvalid
)

func parseCLIArgs(args []string) (cliMode, string) {
	if len(args) == 0 {
		return cliRun, ""
	}

	switch args[0] {
	case "run":
		return cliRun, ""
	case "reconcile":
		return cliReconcile, ""
	case "--version", "-version", "-v":
		return cliVersion, ""
	case "--help", "-h", "help":
		return cliHelp, ""
	default:
		return cliInvalid, fmt.Sprintf("unexpected argument: %s", strings.Join(args, " "))
	}
}

func usage() string {
	return `Usage: terminalmeme [run|reconcile] [--version|-version|-v] [--help|-h]

  run        browse the meme feed (default)
  reconcile  replay tips whose record write failed after a confirmed transfer`
}

func resolveVersionInfo(v, c, d, moduleVersion string, settings map[string]string) (string, string, string) {
	if v == "dev" {
		mv := strings.TrimSpace(moduleVersion)
		if mv != "" && mv != "(devel)" {
			v = mv
		}
	}
	if c == "none" {
		rev := strings.TrimSpace(settings["vcs.revision"])
		if rev != "" {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			c = rev
		}
	}
	if d == "unknown" {
		t := strings.TrimSpace(settings["vcs.time"])
		if t != "" {
			d = t
		}
	}
	return v, c, d
}

func buildSettingsMap(in []debug.BuildSetting) map[string]string {
	out := make(map[string]string, len(in))
	for _, s := range in {
		out[s.Key] = s.Value
	}
	return out
}

func resolvedRuntimeVersionInfo(v, c, d string) (string, string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return v, c, d
	}
	return resolveVersionInfo(v, c, d, info.Main.Version, buildSettingsMap(info.Settings))
}

func main() {
	mode, msg := parseCLIArgs(os.Args[1:])
	switch mode {
	case cliVersion:
		v, c, d := resolvedRuntimeVersionInfo(version, commit, date)
		fmt.Printf("TerminalMeme %s\ncommit: %s\nbuilt: %s\n", v, c, d)
		return
	case cliHelp:
		fmt.Println(usage())
		return
	case cliInvalid:
		fmt.Fprintf(os.Stderr, "%s\n%s\n", msg, usage())
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mode == cliReconcile {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
		if err := reconcile(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "terminalmeme: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging sends slog output to a file; the TUI owns stdout.
func setupLogging(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "terminalmeme")
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return f, nil
}

// tipLedger picks Postgres when configured, else the backend API.
func tipLedger(ctx context.Context, cfg config.Config, client *memeapi.Client) (app.TipService, func(), error) {
	if cfg.DatabaseURL == "" {
		return memeapi.NewTipService(client), func() {}, nil
	}
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := postgres.NewTipStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

func run(ctx context.Context, cfg config.Config) error {
	logFile, err := setupLogging(cfg.LogPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// 1. Build infrastructure.
	session := auth.NewFileSession(cfg.SessionPath)
	client := memeapi.NewClient(cfg.APIURL, session)

	tips, closeLedger, err := tipLedger(ctx, cfg, client)
	if err != nil {
		return err
	}
	defer closeLedger()

	nc, err := live.Connect(cfg.NATSURL)
	if err != nil {
		return err
	}
	defer nc.Close()

	rdb := price.NewClient(cfg.RedisAddr)
	defer rdb.Close()
	prices := price.NewFeed(rdb)
	go refreshPrices(ctx, prices)

	var reporter app.InconsistencyReporter = report.LogReporter{}
	if len(cfg.KafkaBrokers) > 0 {
		w := report.NewWriter(cfg.KafkaBrokers)
		defer w.Close()
		reporter = report.NewReporter(w)
	}

	store := localstore.NewFileStore(cfg.StatePath)
	if err := store.Load(); err != nil {
		slog.Warn("main: local store unreadable, starting fresh", "path", cfg.StatePath, "error", err)
	}

	// 2. Build services (concrete types satisfy app.* interfaces).
	feedSvc := memeapi.NewFeedService(client, session)
	inbox := common.NewInbox(256)
	defer inbox.Close()

	// 3. Wire root TUI model.
	root := tui.NewApp(tui.Deps{
		Feed:     feedSvc,
		Search:   feedSvc,
		Items:    memeapi.NewItemService(client),
		Live:     live.NewService(nc, tips),
		Session:  session,
		Wallet:   wallet.New(cfg.WalletBridge, cfg.SolanaRPC),
		Tips:     tips,
		Prices:   prices,
		Reporter: reporter,
		Store:    store,
		Inbox:    inbox,
		Token:    cfg.TipToken,
		Preview:  cfg.Preview,
	})

	// 4. Run.
	p := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// refreshPrices keeps the price cache warm on its own cadence.
func refreshPrices(ctx context.Context, prices app.PriceService) {
	refresh := func() {
		rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := prices.Refresh(rctx); err != nil && ctx.Err() == nil {
			slog.Warn("main: price refresh failed", "error", err)
		}
	}
	refresh()
	t := time.NewTicker(priceRefreshEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			refresh()
		}
	}
}

func reconcile(ctx context.Context, cfg config.Config) error {
	if len(cfg.KafkaBrokers) == 0 {
		return fmt.Errorf("TERMINALMEME_KAFKA is not set")
	}
	session := auth.NewFileSession(cfg.SessionPath)
	tips, closeLedger, err := tipLedger(ctx, cfg, memeapi.NewClient(cfg.APIURL, session))
	if err != nil {
		return err
	}
	defer closeLedger()

	r := report.NewReader(cfg.KafkaBrokers, reconcileGroup)
	defer r.Close()

	slog.Info("reconcile: consuming reports", "topic", report.Topic, "brokers", strings.Join(cfg.KafkaBrokers, ","))
	res, err := report.Sweep(ctx, r, wallet.New(cfg.WalletBridge, cfg.SolanaRPC), tips, reconcileIdle)
	fmt.Printf("recorded: %d\nunconfirmed: %d\nmalformed: %d\n", res.Recorded, res.Unconfirmed, res.Malformed)
	return err
}
