package commands

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/9Nov/Strava-Sync/ledger"
	"github.com/9Nov/Strava-Sync/strava"
)

const APP = "strava-sync"

type Options struct {
	Debug bool
}

// command holds the options shared by all the commands that access the spreadsheet.
type command struct {
	workdir     string
	credentials string
	tokens      string
	url         string
	debug       bool
}

func defaults() command {
	return command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		tokens:      "",
		url:         "",
		debug:       false,
	}
}

func (cmd *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, "Directory for working files (tokens, lockfiles, etc)")
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the Google 'credentials.json' (or service account key) file")
	flagset.StringVar(&cmd.tokens, "tokens", cmd.tokens, "Directory for the authorisation tokens. Defaults to <workdir>/.google")
	flagset.StringVar(&cmd.url, "url", cmd.url, "Spreadsheet URL")

	return flagset
}

// spreadsheet validates the common options and returns the spreadsheet ID from the URL.
func (cmd *command) spreadsheet() (string, error) {
	if strings.TrimSpace(cmd.credentials) == "" {
		return "", fmt.Errorf("--credentials is a required option")
	}

	if strings.TrimSpace(cmd.url) == "" {
		return "", fmt.Errorf("--url is a required option")
	}

	return spreadsheetID(cmd.url)
}

func (cmd *command) tokenDir() string {
	if cmd.tokens != "" {
		return cmd.tokens
	}

	return filepath.Join(cmd.workdir, ".google")
}

// ledger authorises access to the spreadsheet and returns a ledger backed by it.
func (cmd *command) ledger(ctx context.Context) (*ledger.Ledger, error) {
	spreadsheet, err := cmd.spreadsheet()
	if err != nil {
		return nil, err
	}

	if cmd.debug {
		debugf("Spreadsheet - ID:%s", spreadsheet)
	}

	client, err := authorize(ctx, cmd.credentials, SHEETS, cmd.tokenDir())
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%v)", err)
	}

	google, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	return ledger.New(ledger.NewSheets(google, spreadsheet)), nil
}

func spreadsheetID(url string) (string, error) {
	match := regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`).FindStringSubmatch(url)
	if len(match) < 2 || match[1] == "" {
		return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
	}

	return match[1], nil
}

// stravaApp holds the Strava API application credentials. The client ID and secret default to
// the STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET environment variables.
type stravaApp struct {
	clientID     string
	clientSecret string
}

func stravaDefaults() stravaApp {
	return stravaApp{
		clientID:     os.Getenv("STRAVA_CLIENT_ID"),
		clientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
	}
}

func (s *stravaApp) flags(flagset *flag.FlagSet) {
	flagset.StringVar(&s.clientID, "client-id", s.clientID, "Strava API application client ID. Defaults to $STRAVA_CLIENT_ID")
	flagset.StringVar(&s.clientSecret, "client-secret", s.clientSecret, "Strava API application client secret. Defaults to $STRAVA_CLIENT_SECRET")
}

func (s *stravaApp) client(redirect string) (*strava.Client, error) {
	if strings.TrimSpace(s.clientID) == "" {
		return nil, fmt.Errorf("--client-id is a required option")
	}

	if strings.TrimSpace(s.clientSecret) == "" {
		return nil, fmt.Errorf("--client-secret is a required option")
	}

	return strava.NewClient(s.clientID, s.clientSecret, redirect), nil
}

func helpOptions(flagset *flag.FlagSet) {
	fmt.Println("  Options:")
	fmt.Println()

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-14s %s\n", f.Name, f.Usage)
	})

	fmt.Println()
	fmt.Printf("    --%-14s %s\n", "debug", "Displays internal information for diagnosing errors")
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "WARN", fmt.Sprintf(format, args...))
}

func errorf(format string, args ...any) {
	log.Printf("%-5s %s", "ERROR", fmt.Sprintf(format, args...))
}
