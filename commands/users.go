package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/9Nov/Strava-Sync/ledger"
)

var UsersCmd = Users{
	command: defaults(),
}

type Users struct {
	command
}

func (cmd *Users) Name() string {
	return "users"
}

func (cmd *Users) Description() string {
	return "Lists the linked Strava athletes"
}

func (cmd *Users) Usage() string {
	return "--credentials <file> --url <url>"
}

func (cmd *Users) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] users [options] --url <URL>\n", APP)
	fmt.Println()
	fmt.Println("  Lists the display name and Strava athlete ID of each linked athlete.")
	fmt.Println()

	helpOptions(cmd.FlagSet())
	fmt.Println()
}

func (cmd *Users) FlagSet() *flag.FlagSet {
	return cmd.flagset("users")
}

func (cmd *Users) Execute(args ...any) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	ctx := context.Background()

	l, err := cmd.ledger(ctx)
	if err != nil {
		return err
	}

	users, err := l.Users(ctx)
	if err != nil {
		return err
	}

	listUsers(os.Stdout, users)

	return nil
}

// listUsers prints the display name and athlete ID of each user. Refresh tokens are never printed.
func listUsers(w io.Writer, users []ledger.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No linked users")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "%v\t%v\n", ledger.MetadataHeader[0], ledger.MetadataHeader[1])
	for _, u := range users {
		fmt.Fprintf(tw, "%v\t%v\n", u.Name, u.AthleteID)
	}

	tw.Flush()
}
