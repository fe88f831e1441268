package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const SHEETS = "https://www.googleapis.com/auth/spreadsheets"

// authorize returns an HTTP client authorised for the scope. A service account key file is used
// as is, an installed application 'credentials.json' file requires the token saved by the
// 'authorise' command.
func authorize(ctx context.Context, credentials, scope, tokens string) (*http.Client, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	if isServiceAccount(b) {
		config, err := google.JWTConfigFromJSON(b, scope)
		if err != nil {
			return nil, err
		}

		return config.Client(ctx), nil
	}

	config, err := google.ConfigFromJSON(b, scope)
	if err != nil {
		return nil, err
	}

	file := tokenFile(credentials, scope, tokens)
	token, err := tokenFromFile(file)
	if err != nil {
		return nil, fmt.Errorf("missing or invalid authorisation token %v - run '%v authorise' to create it (%v)", file, APP, err)
	}

	return config.Client(ctx, token), nil
}

func isServiceAccount(credentials []byte) bool {
	var key struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(credentials, &key); err != nil {
		return false
	}

	return key.Type == "service_account"
}

func tokenFile(credentials, scope, dir string) string {
	_, file := filepath.Split(credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	if strings.HasPrefix(scope, SHEETS) {
		return filepath.Join(dir, fmt.Sprintf("%s.sheets", name))
	}

	return filepath.Join(dir, fmt.Sprintf("%s.tokens", name))
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := oauth2.Token{}
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func saveToken(file string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token (%v)", err)
	}

	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
