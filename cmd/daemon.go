package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/config"
	"github.com/pocketsafe/pocketsafe/internal/daemon"

	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Scan for due payments on a schedule and serve status over HTTP",
	Long: `Run the reminder scanner as a long-lived process. Both obligation kinds are
scanned at start and then every --interval. Status, recent events, a live SSE
stream and Prometheus metrics are served on --addr.`,
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and scan status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	pf.DurationVar(&flagDaemonInterval, "interval", 0, "Scan interval (default from config)")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Events kept in memory (default from config)")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(config.DataDir(), "pocketsafed.pid"), "PID file path")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.DataDir(), "pocketsafed.log"), "Log file for --detach")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Start in the background and return")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: running as the detached child")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// pidFile is the daemon's PID file plus a JSON sidecar describing the
// running instance.
type pidFile string

// runningDaemon is what the sidecar records.
type runningDaemon struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DBPath    string    `json:"db_path"`
}

func (f pidFile) statePath() string { return string(f) + ".json" }

func (f pidFile) PID() (int, error) {
	//nolint:gosec // pid path is configured by the local user
	data, err := os.ReadFile(string(f))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", f)
	}
	return pid, nil
}

// Claim fails when a live daemon holds the file; a stale file is removed.
func (f pidFile) Claim() error {
	pid, err := f.PID()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(pid):
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	f.Remove()
	return nil
}

// Write records the current process and its state.
func (f pidFile) Write(st runningDaemon) error {
	if err := os.MkdirAll(filepath.Dir(string(f)), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(string(f), []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.statePath(), append(data, '\n'), 0o600)
}

func (f pidFile) State() (runningDaemon, error) {
	var st runningDaemon
	data, err := os.ReadFile(f.statePath())
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func (f pidFile) Remove() {
	_ = os.Remove(string(f))
	_ = os.Remove(f.statePath())
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("--detach and --child are mutually exclusive")
	}
	if flagDaemonDetach {
		return startDaemonDetached()
	}
	return runDaemonForeground()
}

func startDaemonDetached() error {
	pf := pidFile(flagDaemonPIDFile)
	if err := pf.Claim(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	args := append(filterDetachArg(os.Args[1:]), "--child")

	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}
	//nolint:gosec // log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // re-executes the current binary
	child.Stdout, child.Stderr = logf, logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  Status: http://%s/v1/status\n", daemonAddr(cfg))
	fmt.Printf("  Log:    %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground() error {
	pf := pidFile(flagDaemonPIDFile)
	if err := pf.Claim(); err != nil {
		return err
	}

	app, err := openApp("json")
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := period(app.cfg)
	if err != nil {
		return err
	}

	cfg := daemon.Config{
		Interval:      app.cfg.ReminderInterval(),
		Addr:          daemonAddr(app.cfg),
		EventsBuffer:  app.cfg.Daemon.EventsBuffer,
		LookaheadDays: lookaheadDays(app.cfg.Reminders.LookaheadDays),
		Period:        p,
	}
	if flagDaemonInterval > 0 {
		cfg.Interval = flagDaemonInterval
	}
	if flagDaemonEventsBuffer > 0 {
		cfg.EventsBuffer = flagDaemonEventsBuffer
	}

	if err := pf.Write(runningDaemon{
		PID:       os.Getpid(),
		Addr:      cfg.Addr,
		StartedAt: time.Now(),
		DBPath:    app.cfg.DBPath(),
	}); err != nil {
		return err
	}
	defer pf.Remove()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	notifier := deliveryChannels(ctx, app)
	svc := daemon.New(cfg, app.store, notifier, app.goals, app.log)

	fmt.Printf("  pocketsafe daemon listening on http://%s\n", cfg.Addr)
	fmt.Printf("  Scanning every %s for payments due within %d days (%d channels)\n",
		cfg.Interval, cfg.LookaheadDays, len(notifier))
	fmt.Printf("  Stop with: pocketsafe daemon stop\n")

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// daemonAddr resolves --addr, falling back to the configured address.
func daemonAddr(cfg config.Config) string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	return cfg.Daemon.Addr
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagDaemonPIDFile)
	pid, err := pf.PID()
	if err != nil {
		fmt.Println("  Daemon: not running")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	if st, err := pf.State(); err == nil && addr == "" {
		addr = st.Addr
	}
	if addr == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		addr = cfg.Daemon.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := fetchDaemonStatus(addr)
	if err != nil {
		fmt.Printf("  API: %v\n", err)
		return nil
	}

	lastScan := "pending"
	if !st.LastScanAt.IsZero() {
		lastScan = st.LastScanAt.Local().Format(time.RFC3339)
	}
	rows := [][]string{
		{"Up for", cli.FormatDuration(int64(time.Since(st.StartedAt).Seconds()))},
		{"Last scan", lastScan},
		{"Interval", cli.FormatDuration(int64(st.ScanIntervalSec))},
		{"Lookahead", fmt.Sprintf("%d days", st.LookaheadDays)},
		{"Scans", cli.FormatNumber(st.ScanCount)},
		{"Reminders", cli.FormatNumber(st.RemindersEmitted)},
		{"Failed deliveries", cli.FormatNumber(st.DeliveryFailures)},
		{"Events / subscribers", fmt.Sprintf("%d / %d", st.EventCount, st.SubscriberCount)},
	}
	if st.Goal.Status != "" {
		rows = append(rows, cli.Separator,
			[]string{"Goal (" + string(st.Goal.Period) + ")", st.Goal.Label},
			[]string{"Remainder", st.Goal.Remainder})
	}
	if st.LastError != "" {
		rows = append(rows, cli.Separator, []string{"Last error", st.LastError})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: "Daemon", Headers: []string{"Metric", "Value"}, Rows: rows}))
	return nil
}

func fetchDaemonStatus(addr string) (daemon.Status, error) {
	var st daemon.Status
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status request
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagDaemonPIDFile)
	pid, err := pf.PID()
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	for deadline := time.Now().Add(8 * time.Second); time.Now().Before(deadline); time.Sleep(150 * time.Millisecond) {
		if !processAlive(pid) {
			pf.Remove()
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

// filterDetachArg drops --detach so the child runs in the foreground.
func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}
