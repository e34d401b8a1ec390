// Command partsctl is a terminal front end for the spare-parts inventory
// backend.
//
// Usage:
//
//	partsctl <command> [flags] [args]
//
// The session token and the selected station persist between runs in a
// local SQLite file (SPAREPARTS_STATE_DB). Failed backend calls are reported
// once on stderr and the command exits with status 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync/atomic"
	"syscall"

	"spareparts/internal/config"
	"spareparts/internal/core/token"
	"spareparts/internal/domain/inventory"
	"spareparts/internal/domain/session"
	"spareparts/internal/infrastructure/http/client"
	"spareparts/internal/infrastructure/http/partsapi"
	"spareparts/internal/infrastructure/storage/localstore"
	"spareparts/pkg/logger"
)

// selectedStationKey is the local storage key of the selected station.
const selectedStationKey = "selected_station"

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":      {"sign in: login -u USER [-p PASSWORD]", cmdLogin},
	"logout":     {"sign out and forget the token", cmdLogout},
	"whoami":     {"show the signed-in user", cmdWhoami},
	"station":    {"show or select the station: station [NAME]", cmdStation},
	"sites":      {"list sites", cmdSites},
	"categories": {"list categories, or add one with -name and -code", cmdCategories},
	"parts":      {"list spare parts", cmdParts},
	"part":       {"show one part: part ID", cmdPart},
	"history":    {"show a part's transactions: history ID", cmdHistory},
	"stock":      {"record a stock movement: stock -type in|out -qty N (-part ID | -name NAME -site ID)", cmdStock},
	"stats":      {"show movement totals: stats [-part ID]", cmdStats},
	"low-stock":  {"list parts matching the stock rule", cmdLowStock},
	"state":      {"show what is kept in the local state file", cmdState},
}

// app holds the wired client for one invocation.
type app struct {
	cfg       config.Client
	log       *logger.Logger
	state     *localstore.Store
	client    *client.Client
	session   *session.Store
	inventory *inventory.Store
	out       io.Writer

	// notified counts failures already shown by the pipeline.
	notified atomic.Int32
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stdout)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	a, err := newApp(ctx, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer a.close()

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		// The pipeline already told the user about failed calls.
		if a.notified.Load() == 0 {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newApp(ctx context.Context, stdout, stderr io.Writer) (*app, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	// Diagnostics are quiet unless asked for; failures reach the user
	// through the notifier.
	if os.Getenv(config.EnvLogLevel) == "" {
		cfg.Log.Level = "error"
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	state, err := localstore.Open(ctx, cfg.StateDB)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, state: state, out: stdout}
	holder := token.NewHolder(state)
	notifier := client.NotifierFunc(func(_ context.Context, message string) {
		a.notified.Add(1)
		fmt.Fprintf(stderr, "error: %s\n", message)
	})

	a.client, err = client.New(cfg.API, holder, notifier, log)
	if err != nil {
		_ = state.Close()
		return nil, err
	}
	api := partsapi.New(a.client)
	a.session = session.NewStore(api, holder, log)
	a.inventory = inventory.NewStore(api, log)
	return a, nil
}

func (a *app) close() {
	if err := a.state.Close(); err != nil {
		a.log.Warnw("close local state", "error", err)
	}
	_ = a.log.Sync()
}

// restore brings back the signed-in user and the persisted station.
func (a *app) restore(ctx context.Context) (*session.User, error) {
	u, err := a.session.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New("not signed in; run: partsctl login -u USER")
	}
	station, err := a.state.Load(ctx, selectedStationKey)
	if err != nil && !errors.Is(err, token.ErrNotFound) {
		return nil, err
	}
	if station != "" {
		a.session.SetSelectedStation(station)
	}
	return u, nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: partsctl <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-11s %s\n", name, commands[name].summary)
	}
}
