package commands

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/9Nov/Strava-Sync/syncer"
)

var LinkCmd = Link{
	command: defaults(),
	strava:  stravaDefaults(),
	bind:    "127.0.0.1:8910",
	name:    "",
}

// Link connects a Strava athlete to a display name (and worksheet) using the Strava OAuth
// authorization code flow.
type Link struct {
	command
	strava stravaApp
	bind   string
	name   string
}

func (cmd *Link) Name() string {
	return "link"
}

func (cmd *Link) Description() string {
	return "Links a Strava athlete to a worksheet in the spreadsheet"
}

func (cmd *Link) Usage() string {
	return "--credentials <file> --url <url> [--name <display name>]"
}

func (cmd *Link) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] link [options] --url <URL> [--name <display name>]\n", APP)
	fmt.Println()
	fmt.Println("  Authorises read access to a Strava athlete's activities and links the athlete to a display")
	fmt.Println("  name. A new display name gets its own worksheet, an existing display name has its Strava")
	fmt.Println("  authorisation replaced. The display name defaults to the athlete's first and last name.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s link --credentials \"credentials.json\" \\\n", APP)
	fmt.Println(`                --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                --name "Jane Doe"`)
	fmt.Println()
}

func (cmd *Link) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("link")

	cmd.strava.flags(flagset)

	flagset.StringVar(&cmd.name, "name", cmd.name, "Display name (and worksheet title). Defaults to the Strava athlete's name")
	flagset.StringVar(&cmd.bind, "bind", cmd.bind, "Local address for the OAuth callback server")

	return flagset
}

func (cmd *Link) Execute(args ...any) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	ctx := context.Background()

	l, err := cmd.ledger(ctx)
	if err != nil {
		return err
	}

	state := uuid.New().String()

	cb, err := listen(cmd.bind, "/strava/callback", state)
	if err != nil {
		return fmt.Errorf("unable to start OAuth callback server (%v)", err)
	}

	defer cb.close()

	client, err := cmd.strava.client(cb.redirect())
	if err != nil {
		return err
	}

	browse(client.AuthCodeURL(state))

	code, err := cb.wait(ctx)
	if err != nil {
		return fmt.Errorf("Strava authorisation error (%v)", err)
	}

	link, err := client.Exchange(ctx, code)
	if err != nil {
		return err
	}

	name := displayName(cmd.name, link.Athlete.Name())
	if name == "" {
		return fmt.Errorf("Strava athlete %v has no name - use --name to set the display name", link.Athlete.ID)
	}

	s := syncer.NewSyncer(l, client, syncer.WithDebug(cmd.debug))

	created, err := s.Link(ctx, name, strconv.FormatInt(link.Athlete.ID, 10), link.RefreshToken)
	if err != nil {
		return err
	}

	if created {
		fmt.Printf("Linked Strava athlete %v as '%v'\n", link.Athlete.ID, name)
	} else {
		fmt.Printf("Updated Strava authorisation for '%v'\n", name)
	}

	return nil
}

func displayName(name, athlete string) string {
	if v := strings.TrimSpace(name); v != "" {
		return v
	}

	return strings.TrimSpace(athlete)
}
