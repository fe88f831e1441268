package commands

import (
	"context"
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uhppoted/uhppoted-lib/config"
	"github.com/uhppoted/uhppoted-lib/lockfile"

	"github.com/9Nov/Strava-Sync/syncer"
)

var SyncCmd = Sync{
	command:  defaults(),
	strava:   stravaDefaults(),
	user:     "",
	all:      false,
	start:    "",
	end:      "",
	metrics:  "",
	parallel: 4,
}

type Sync struct {
	command
	strava   stravaApp
	user     string
	all      bool
	start    string
	end      string
	metrics  string
	parallel int
}

func (cmd *Sync) Name() string {
	return "sync"
}

func (cmd *Sync) Description() string {
	return "Imports new Strava activities into the athlete worksheets"
}

func (cmd *Sync) Usage() string {
	return "--credentials <file> --url <url> --user <display name> | --all [--start <date> [--end <date>]]"
}

func (cmd *Sync) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] sync [options] --url <URL> --user <display name> | --all\n", APP)
	fmt.Println()
	fmt.Println("  Retrieves the athlete's Strava activities and appends the activities that are not already in")
	fmt.Println("  the athlete's worksheet. Without --start the sync resumes from the most recent activity in the")
	fmt.Println("  worksheet, otherwise it covers the days from --start to --end (inclusive). Each sync retrieves")
	fmt.Println("  at most 50 activities - run it again to catch up on a longer history.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s sync --credentials \"credentials.json\" \\\n", APP)
	fmt.Println(`                --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                --user "Jane Doe" --start 2024-01-01 --end 2024-01-31`)
	fmt.Println()
	fmt.Printf("    %s sync --credentials \"credentials.json\" \\\n", APP)
	fmt.Println(`                --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                --all --metrics /var/lib/node_exporter/strava-sync.prom`)
	fmt.Println()
}

func (cmd *Sync) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("sync")

	cmd.strava.flags(flagset)

	flagset.StringVar(&cmd.user, "user", cmd.user, "Display name of the athlete to sync")
	flagset.BoolVar(&cmd.all, "all", cmd.all, "Syncs all linked athletes")
	flagset.StringVar(&cmd.start, "start", cmd.start, "First day to sync (YYYY-MM-DD)")
	flagset.StringVar(&cmd.end, "end", cmd.end, "Last day to sync (YYYY-MM-DD). Requires --start")
	flagset.StringVar(&cmd.metrics, "metrics", cmd.metrics, "Writes the sync metrics to a Prometheus textfile")
	flagset.IntVar(&cmd.parallel, "parallel", cmd.parallel, "Maximum number of athletes synced concurrently with --all")

	return flagset
}

func (cmd *Sync) Execute(args ...any) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	if strings.TrimSpace(cmd.user) == "" && !cmd.all {
		return fmt.Errorf("one of --user or --all is required")
	}

	if strings.TrimSpace(cmd.user) != "" && cmd.all {
		return fmt.Errorf("--user and --all are mutually exclusive")
	}

	start, end, err := dates(cmd.start, cmd.end)
	if err != nil {
		return err
	}

	client, err := cmd.strava.client("")
	if err != nil {
		return err
	}

	ctx := context.Background()

	l, err := cmd.ledger(ctx)
	if err != nil {
		return err
	}

	s := syncer.NewSyncer(l, client,
		syncer.WithLogger(log.Default()),
		syncer.WithDebug(cmd.debug),
		syncer.WithPageSize(client.PerPage()),
		syncer.WithParallelism(cmd.parallel),
		syncer.WithLock(cmd.lock))

	if cmd.all {
		err = cmd.syncAll(ctx, s, start, end)
	} else {
		err = cmd.sync(ctx, s, strings.TrimSpace(cmd.user), start, end)
	}

	if cmd.metrics != "" {
		if err := prometheus.WriteToTextfile(cmd.metrics, prometheus.DefaultGatherer); err != nil {
			warnf("unable to write metrics to %v (%v)", cmd.metrics, err)
		}
	}

	return err
}

func (cmd *Sync) sync(ctx context.Context, s *syncer.Syncer, name string, start, end *time.Time) error {
	result, err := s.Sync(ctx, name, start, end)
	if err != nil {
		return errors.New(syncer.Describe(name, err))
	}

	fmt.Printf("%v: %v\n", name, result.Message)

	return nil
}

func (cmd *Sync) syncAll(ctx context.Context, s *syncer.Syncer, start, end *time.Time) error {
	outcomes, err := s.SyncAll(ctx, start, end)
	if err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			errorf("%v  %v", o.User, o.Err)
			fmt.Printf("%v: %v\n", o.User, syncer.Describe(o.User, o.Err))
		} else {
			fmt.Printf("%v: %v\n", o.User, o.Result.Message)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%v of %v syncs failed", failed, len(outcomes))
	}

	return nil
}

// lock creates a lockfile for the user in the working directory so that concurrent sync
// processes cannot append the same activities.
func (cmd *Sync) lock(name string) (func(), error) {
	if err := os.MkdirAll(cmd.workdir, 0770); err != nil {
		return nil, err
	}

	lockFile := config.Lockfile{
		File:   filepath.Join(cmd.workdir, lockfileName(name)),
		Remove: false,
	}

	kraken, err := lockfile.MakeLockFile(lockFile)
	if err != nil {
		return nil, err
	}

	return kraken.Release, nil
}

// lockfileName returns the lockfile name for a display name. The readable prefix is only a hint,
// the digest keeps names that clean to the same prefix apart.
func lockfileName(name string) string {
	clean := strings.Trim(regexp.MustCompile(`[^a-zA-Z0-9_-]+`).ReplaceAllString(name, "_"), "_")
	digest := sha256.Sum256([]byte(name))

	if len(clean) > 32 {
		clean = clean[:32]
	}

	if clean == "" {
		return fmt.Sprintf("sync-%x.lock", digest[:8])
	}

	return fmt.Sprintf("sync-%v-%x.lock", clean, digest[:8])
}

// dates parses the --start and --end options. --end is only valid with --start and may not be
// before it.
func dates(start, end string) (*time.Time, *time.Time, error) {
	if strings.TrimSpace(start) == "" {
		if strings.TrimSpace(end) != "" {
			return nil, nil, fmt.Errorf("--end requires --start")
		}

		return nil, nil, nil
	}

	from, err := time.Parse("2006-01-02", strings.TrimSpace(start))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --start date '%v' - expected YYYY-MM-DD", start)
	}

	if strings.TrimSpace(end) == "" {
		return &from, nil, nil
	}

	to, err := time.Parse("2006-01-02", strings.TrimSpace(end))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --end date '%v' - expected YYYY-MM-DD", end)
	}

	if to.Before(from) {
		return nil, nil, fmt.Errorf("--end %v is before --start %v", end, start)
	}

	return &from, &to, nil
}
