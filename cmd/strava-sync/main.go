package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/9Nov/Strava-Sync/commands"
)

var cli = []uhppoted.Command{
	&commands.VersionCmd,
	&commands.AuthoriseCmd,
	&commands.InitCmd,
	&commands.LinkCmd,
	&commands.UsersCmd,
	&commands.SyncCmd,
	&commands.ExportCmd,
}

var options = commands.Options{
	Debug: false,
}

var help = uhppoted.NewHelp(commands.APP, cli, nil)

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	cmd, err := uhppoted.Parse(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	if cmd == nil {
		help.Execute()
		os.Exit(1)
	}

	if err = cmd.Execute(&options); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
