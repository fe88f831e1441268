package commands

import (
	"context"
	"flag"
	"fmt"
)

var InitCmd = Init{
	command: defaults(),
}

type Init struct {
	command
}

func (cmd *Init) Name() string {
	return "init"
}

func (cmd *Init) Description() string {
	return "Prepares a Google Sheets spreadsheet for use with strava-sync"
}

func (cmd *Init) Usage() string {
	return "--credentials <file> --url <url>"
}

func (cmd *Init) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] init [options] --url <URL>\n", APP)
	fmt.Println()
	fmt.Println("  Creates the _Metadata worksheet that maps display names to Strava athletes, if it does")
	fmt.Println("  not already exist.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s init --credentials \"credentials.json\" --url \"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms\"\n", APP)
	fmt.Println()
}

func (cmd *Init) FlagSet() *flag.FlagSet {
	return cmd.flagset("init")
}

func (cmd *Init) Execute(args ...any) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	ctx := context.Background()

	l, err := cmd.ledger(ctx)
	if err != nil {
		return err
	}

	created, err := l.Init(ctx)
	if err != nil {
		return err
	}

	if created {
		infof("Created _Metadata worksheet")
	} else {
		infof("_Metadata worksheet already exists")
	}

	return nil
}
