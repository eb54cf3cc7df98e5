// Package main implements the lottery binary: a timed terminal registration
// window followed by a uniform random winner draw.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	rootpkg "tools.zach/dev/lottery"
	"tools.zach/dev/lottery/internal/atomicfile"
	"tools.zach/dev/lottery/internal/backup"
	"tools.zach/dev/lottery/internal/config"
	"tools.zach/dev/lottery/internal/logger"
	"tools.zach/dev/lottery/internal/lottery"
	"tools.zach/dev/lottery/internal/notify"
	"tools.zach/dev/lottery/internal/participant"
	"tools.zach/dev/lottery/internal/paths"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via -ldflags "-X main.version=...". Without
// ldflags, resolveVersion falls back to the VCS info embedded by the toolchain.
var version = "dev"

func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Flags
// ///////////////////////////////////////////////

type options struct {
	dataDir     string
	duration    time.Duration
	extension   time.Duration
	showVersion bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.dataDir, "data-dir", defaultDataDir(), "Data directory for config, backup, and logs")
	fs.DurationVar(&o.duration, "duration", 0, "Registration window, e.g. 90s (0 uses the config value)")
	fs.DurationVar(&o.extension, "extension", 0, "One-time extension length (0 uses the config value)")
	fs.BoolVar(&o.showVersion, "version", false, "Print the version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.duration < 0 || o.extension < 0 {
		return o, errors.New("--duration and --extension must not be negative")
	}
	return o, nil
}

// defaultDataDir returns ~/.lottery, or ./.lottery when the home directory
// cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", paths.DataDirRel)
	}
	return filepath.Join(home, paths.DataDirRel)
}

// ///////////////////////////////////////////////
// Config
// ///////////////////////////////////////////////

// loadConfig seeds config.toml from the embedded default on first run and
// loads it.
func loadConfig(p DataPaths, stderr io.Writer) (*config.Config, error) {
	if _, err := os.Stat(p.Config()); os.IsNotExist(err) {
		if writeErr := atomicfile.Write(p.Config(), rootpkg.DefaultConfigTOML, 0o644); writeErr != nil {
			fmt.Fprintf(stderr, "warning: failed to write default config: %v\n", writeErr)
		}
	}
	return config.Load(p.Root)
}

// sessionConfig maps the loaded config and flag overrides onto a
// [lottery.Config]. Collaborators are filled in by the caller.
func sessionConfig(cfg *config.Config, o options) lottery.Config {
	lc := lottery.Config{
		Duration:        cfg.Duration(),
		Extension:       cfg.Extension(),
		MinParticipants: cfg.Registration.MinParticipants,
		BackupInterval:  cfg.BackupInterval(),
		Policy:          participant.Policy{Deny: cfg.Registration.Deny},
	}
	if o.duration > 0 {
		lc.Duration = o.duration
	}
	if o.extension > 0 {
		lc.Extension = o.extension
	}
	return lc
}

func describeDuration(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		return fmt.Sprintf("%d minute(s)", int(d/time.Minute))
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%d second(s)", int(d/time.Second))
	}
	return d.String()
}

func printBanner(w io.Writer, d time.Duration) {
	fmt.Fprintln(w, "=== Welcome to the Terminal Lottery System ===")
	fmt.Fprintf(w, "Registration is open for %s.\n", describeDuration(d))
	fmt.Fprintln(w, "You will be prompted to enter your username.")
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

// env holds the process boundary so run can be driven from tests.
type env struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	signals <-chan os.Signal
	exit    func(int)
}

func main() {
	o, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(2)
	}
	if o.showVersion {
		fmt.Println(paths.BinaryName, resolveVersion())
		return
	}
	os.Exit(run(o, env{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		signals: signalChannel(),
		exit:    os.Exit,
	}))
}

// run executes one lottery and returns the process exit status. An interrupt
// ends the process through e.exit after the backup is flushed.
func run(o options, e env) int {
	p := DataPaths{Root: o.dataDir}

	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		fmt.Fprintf(e.stderr, "fatal: create data dir: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(p, e.stderr)
	if err != nil {
		fmt.Fprintf(e.stderr, "fatal: load config: %v\n", err)
		return 1
	}

	log, logCloser, err := logger.NewLogger(p.Log(), logger.ParseLevel(cfg.Log.Level), cfg.Log.MaxSizeMB)
	if err != nil {
		fmt.Fprintf(e.stderr, "fatal: init logger: %v\n", err)
		return 1
	}
	slog.SetDefault(log)
	slog.Info("lottery starting", "version", resolveVersion(), "data_dir", p.Root)

	inst, err := acquireInstance(p)
	if err != nil {
		logger.Fail(slog.Default(), "failed to acquire instance lock", "error", err)
		fmt.Fprintf(e.stderr, "fatal: %v\n", err)
		logCloser.Close()
		return 1
	}

	events, eventCloser := logger.NewEventLog(p.EventLog(), cfg.Log.MaxSizeMB)

	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(func() {
			inst.release()
			eventCloser.Close()
			logCloser.Close()
		})
	}
	defer cleanup()

	lc := sessionConfig(cfg, o)
	lc.Store = backup.New(p.Backup())
	lc.Events = events
	lc.Out = e.stdout
	s, err := lottery.NewSession(lc)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		fmt.Fprintf(e.stderr, "fatal: %v\n", err)
		return 1
	}

	printBanner(e.stdout, lc.Duration)

	restored, err := s.Restore()
	if err != nil {
		logger.Fail(slog.Default(), "failed to restore backup", "error", err)
		fmt.Fprintf(e.stderr, "fatal: %v\n", err)
		return 1
	}
	if restored > 0 {
		fmt.Fprintf(e.stdout, "[INFO] Restored %d users from backup.\n", restored)
		slog.Info("restored participants", "count", restored)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.Announce(ctx, cfg.AnnounceInterval())

	interrupted := make(chan int, 1)
	go s.HandleInterrupts(e.signals, func(code int) {
		cleanup()
		interrupted <- code
		e.exit(code)
	})

	outcome, err := s.Run(ctx, lottery.NewLineReader(e.stdin, e.stdout))
	select {
	case code := <-interrupted:
		return code
	default:
	}
	if errors.Is(err, lottery.ErrClosed) {
		return <-interrupted
	}
	if err != nil {
		logger.Fail(slog.Default(), "registration failed", "error", err)
		fmt.Fprintf(e.stderr, "fatal: %v\n", err)
		// keep what was registered since the last periodic backup
		if !errors.Is(err, lottery.ErrBackup) {
			if flushErr := s.Flush(); flushErr != nil {
				logger.Fail(slog.Default(), "failed to flush backup", "error", flushErr)
				fmt.Fprintf(e.stderr, "fatal: %v\n", flushErr)
			}
		}
		return 1
	}
	slog.Info("registration closed", "outcome", outcome.String(), "participants", s.Count())
	if outcome == lottery.NoParticipants {
		return 0
	}

	w, err := s.DrawWinner()
	s.Stop()
	switch {
	case errors.Is(err, lottery.ErrNoParticipants):
		return 0
	case errors.Is(err, lottery.ErrNotRunning):
		// an interrupt closed the session between the loop and the draw
		return <-interrupted
	case err != nil:
		slog.Error("draw cleanup failed", "winner", w.ID, "error", err)
		fmt.Fprintf(e.stderr, "fatal: %v\n", err)
		return 1
	}

	notifyWinner(cfg, w)
	return 0
}

// notifyWinner posts the result to the configured webhook. Delivery failures
// are logged and never change the exit status.
func notifyWinner(cfg *config.Config, w lottery.Winner) {
	hook := notify.New(cfg.Notify.WebhookURL)
	if hook == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := hook.Send(ctx, w); err != nil {
		slog.Warn("winner notification failed", "url", hook.URL, "error", err)
		return
	}
	slog.Info("winner notification sent", "url", hook.URL)
}
