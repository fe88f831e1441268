package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var AuthoriseCmd = Authorise{
	command: defaults(),
	bind:    "127.0.0.1:0",
}

type Authorise struct {
	command
	bind string
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises strava-sync to access the Google Sheets spreadsheet"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file>"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Authorises strava-sync to read and update Google Sheets spreadsheets on behalf of the")
	fmt.Println("  Google account. The authorisation token is saved to the tokens directory. Not required")
	fmt.Println("  when --credentials is a service account key file.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s authorise --credentials \"credentials.json\"\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("authorise")

	flagset.StringVar(&cmd.bind, "bind", cmd.bind, "Local address for the OAuth callback server")

	return flagset
}

func (cmd *Authorise) Execute(args ...any) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	if strings.TrimSpace(cmd.credentials) == "" {
		return fmt.Errorf("--credentials is a required option")
	}

	b, err := os.ReadFile(cmd.credentials)
	if err != nil {
		return err
	}

	if isServiceAccount(b) {
		infof("%v is a service account key - no authorisation required", cmd.credentials)
		return nil
	}

	config, err := google.ConfigFromJSON(b, SHEETS)
	if err != nil {
		return fmt.Errorf("invalid credentials file (%v)", err)
	}

	ctx := context.Background()
	state := uuid.New().String()

	cb, err := listen(cmd.bind, "/", state)
	if err != nil {
		return fmt.Errorf("unable to start OAuth callback server (%v)", err)
	}

	defer cb.close()

	config.RedirectURL = cb.redirect()

	if cmd.debug {
		debugf("OAuth callback %v", config.RedirectURL)
	}

	browse(config.AuthCodeURL(state, oauth2.AccessTypeOffline))

	code, err := cb.wait(ctx)
	if err != nil {
		return fmt.Errorf("authorisation error (%v)", err)
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to retrieve token from web (%v)", err)
	}

	file := tokenFile(cmd.credentials, SHEETS, cmd.tokenDir())
	if err := saveToken(file, token); err != nil {
		return err
	}

	infof("Saved authorisation token to %v", file)

	return nil
}
