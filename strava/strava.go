package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

const (
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
	API      = "https://www.strava.com/api/v3"

	// PerPage is the number of activities requested per sync. Only the first page is fetched.
	PerPage = 50

	SCOPE = "activity:read_all"
)

// Token is the result of a refresh token exchange. RefreshToken is the token to use for the next
// exchange and may differ from the one that was submitted.
type Token struct {
	AccessToken  string
	RefreshToken string
}

// Link is the result of the authorization code exchange.
type Link struct {
	Athlete      Athlete
	AccessToken  string
	RefreshToken string
}

type Client struct {
	config  oauth2.Config
	api     string
	perPage int
	client  *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithEndpoints overrides the Strava OAuth token and API base URLs.
func WithEndpoints(tokenURL, api string) Option {
	return func(c *Client) {
		c.config.Endpoint.TokenURL = tokenURL
		c.api = strings.TrimSuffix(api, "/")
	}
}

func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

func NewClient(clientID, clientSecret, redirectURL string, options ...Option) *Client {
	c := Client{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{SCOPE},
			Endpoint: oauth2.Endpoint{
				AuthURL:   AuthURL,
				TokenURL:  TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		api:     API,
		perPage: PerPage,
		client:  http.DefaultClient,
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// AuthCodeURL returns the Strava authorization page URL. approval_prompt=force re-prompts for
// consent even if the athlete has already authorised the application.
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "force"))
}

// Exchange trades an authorization code for the athlete's tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*Link, error) {
	token, err := c.config.Exchange(c.context(ctx), code)
	if err != nil {
		return nil, authError(err)
	}

	link := Link{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	if v := token.Extra("athlete"); v != nil {
		if b, err := json.Marshal(v); err != nil {
			return nil, fmt.Errorf("invalid athlete in token response (%w)", err)
		} else if err := json.Unmarshal(b, &link.Athlete); err != nil {
			return nil, fmt.Errorf("invalid athlete in token response (%w)", err)
		}
	}

	if link.Athlete.ID == 0 {
		return nil, fmt.Errorf("token response missing athlete")
	}

	if link.RefreshToken == "" {
		return nil, fmt.Errorf("token response missing refresh token")
	}

	return &link, nil
}

// Refresh exchanges a long-lived refresh token for a short-lived access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, &AuthError{Err: fmt.Errorf("missing refresh token")}
	}

	source := c.config.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		return nil, authError(err)
	}

	return &Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}

// Activities retrieves a single page of the athlete's activities that started after 'after' and,
// if 'before' is not nil, before 'before' (both epoch seconds, passed through to Strava as is).
func (c *Client) Activities(ctx context.Context, accessToken string, after int64, before *int64) ([]Activity, error) {
	query := url.Values{}
	query.Set("after", strconv.FormatInt(after, 10))
	if before != nil {
		query.Set("before", strconv.FormatInt(*before, 10))
	}
	query.Set("per_page", strconv.Itoa(c.perPage))

	uri := fmt.Sprintf("%v/athlete/activities?%v", c.api, query.Encode())

	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	rq.Header.Set("Authorization", "Bearer "+accessToken)
	rq.Header.Set("Accept", "application/json")

	response, err := c.client.Do(rq)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))

		return nil, &FetchError{
			StatusCode: response.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	activities := []Activity{}
	if err := json.NewDecoder(response.Body).Decode(&activities); err != nil {
		return nil, &FetchError{
			StatusCode: response.StatusCode,
			Err:        fmt.Errorf("invalid response (%w)", err),
		}
	}

	return activities, nil
}

func (c *Client) PerPage() int {
	return c.perPage
}

func (c *Client) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.client)
}

// authError maps a rejection by the token endpoint to an AuthError. Transport failures are
// returned wrapped but otherwise unchanged.
func authError(err error) error {
	var rejected *oauth2.RetrieveError
	if errors.As(err, &rejected) {
		return &AuthError{Err: err}
	}

	return fmt.Errorf("strava token request failed (%w)", err)
}
