package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ExportCmd = Export{
	command: defaults(),
	user:    "",
	file:    "",
}

type Export struct {
	command
	user string
	file string
}

func (cmd *Export) Name() string {
	return "export"
}

func (cmd *Export) Description() string {
	return "Retrieves an athlete's activities from the spreadsheet and stores them to a local TSV file"
}

func (cmd *Export) Usage() string {
	return "--credentials <file> --url <url> --user <display name> [--file <file>]"
}

func (cmd *Export) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] export [options] --url <URL> --user <display name> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads an athlete's activity worksheet to a TSV file")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --debug export --credentials \"credentials.json\" \\\n", APP)
	fmt.Println(`                      --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                      --user "Jane Doe" \`)
	fmt.Println(`                      --file "jane.tsv"`)
	fmt.Println()
}

func (cmd *Export) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("export")

	flagset.StringVar(&cmd.user, "user", cmd.user, "Display name of the athlete")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file name. Defaults to '<display name> - <yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Export) Execute(args ...any) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	name := strings.TrimSpace(cmd.user)
	if name == "" {
		return fmt.Errorf("--user is a required option")
	}

	file := cmd.file
	if file == "" {
		file = fmt.Sprintf("%v - %v", name, time.Now().Format("2006-01-02T150405.tsv"))
	}

	ctx := context.Background()

	l, err := cmd.ledger(ctx)
	if err != nil {
		return err
	}

	if _, err := l.User(ctx, name); err != nil {
		return err
	}

	rows, err := l.Activities(ctx, name)
	if err != nil {
		return err
	}

	if cmd.debug {
		debugf("Retrieved %v rows from worksheet '%v'", len(rows), name)
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".export-*.tsv")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := activitiesToTSV(tmp, rows); err != nil {
		return fmt.Errorf("error creating TSV file (%v)", err)
	}

	tmp.Close()

	if err := os.Rename(tmp.Name(), file); err != nil {
		return err
	}

	infof("Exported activities for '%v' to file %s", name, file)

	return nil
}
