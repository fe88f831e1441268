package ledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/9Nov/Strava-Sync/strava"
)

// METADATA is the worksheet that maps display names to Strava athletes and refresh tokens.
const METADATA = "_Metadata"

var MetadataHeader = []string{"Display Name", "Strava ID", "RefreshToken"}

var ErrUserNotFound = errors.New("user not found")
var ErrInvalidName = errors.New("invalid display name")

// User is a linked athlete. Name is both the lookup key and the title of the athlete's
// activity worksheet.
type User struct {
	Name         string
	AthleteID    string
	RefreshToken string
}

// Ledger implements the user and activity operations on top of a Store.
type Ledger struct {
	store Store
}

type entry struct {
	User
	row int
}

func New(store Store) *Ledger {
	return &Ledger{
		store: store,
	}
}

// Init creates the metadata worksheet (with its header row) if it does not exist.
func (l *Ledger) Init(ctx context.Context) (bool, error) {
	tables, err := l.store.Tables(ctx)
	if err != nil {
		return false, &StoreError{Op: "list worksheets", Err: err}
	}

	for _, t := range tables {
		if t == METADATA {
			return false, nil
		}
	}

	if err := l.store.CreateTable(ctx, METADATA); err != nil && !errors.Is(err, ErrTableExists) {
		return false, &StoreError{Op: "create worksheet", Table: METADATA, Err: err}
	}

	if err := l.store.Write(ctx, METADATA, "A1:C1", [][]string{MetadataHeader}); err != nil {
		return false, &StoreError{Op: "write header", Table: METADATA, Err: err}
	}

	return true, nil
}

func (l *Ledger) Users(ctx context.Context) ([]User, error) {
	entries, err := l.users(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]User, len(entries))
	for i, e := range entries {
		users[i] = e.User
	}

	return users, nil
}

// User returns the linked user with the display name, or an error wrapping ErrUserNotFound.
func (l *Ledger) User(ctx context.Context, name string) (*User, error) {
	entries, err := l.users(ctx)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.Name == name {
			u := e.User
			return &u, nil
		}
	}

	return nil, fmt.Errorf("%w: '%v'", ErrUserNotFound, name)
}

// Link adds a new user (worksheet with header row and a metadata row) or, if the display name is
// already linked, replaces the user's refresh token. Returns true if a new user was created.
func (l *Ledger) Link(ctx context.Context, user User) (bool, error) {
	if strings.TrimSpace(user.Name) == "" || user.Name == METADATA {
		return false, fmt.Errorf("%w: '%v'", ErrInvalidName, user.Name)
	}

	if _, err := l.Init(ctx); err != nil {
		return false, err
	}

	entries, err := l.users(ctx)
	if err != nil {
		return false, err
	}

	for _, e := range entries {
		if e.Name == user.Name {
			return false, l.updateRefreshToken(ctx, e, user.RefreshToken)
		}
	}

	// ... an existing worksheet without a metadata row is adopted as is
	if err := l.store.CreateTable(ctx, user.Name); err == nil {
		if err := l.store.Write(ctx, user.Name, headerRange(), [][]string{Header}); err != nil {
			return false, &StoreError{Op: "write header", Table: user.Name, Err: err}
		}
	} else if !errors.Is(err, ErrTableExists) {
		return false, &StoreError{Op: "create worksheet", Table: user.Name, Err: err}
	}

	row := []string{user.Name, user.AthleteID, user.RefreshToken}
	if err := l.store.Append(ctx, METADATA, [][]string{row}); err != nil {
		return false, &StoreError{Op: "append", Table: METADATA, Err: err}
	}

	return true, nil
}

// UpdateRefreshToken replaces the stored refresh token of a linked user.
func (l *Ledger) UpdateRefreshToken(ctx context.Context, name, token string) error {
	entries, err := l.users(ctx)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.Name == name {
			return l.updateRefreshToken(ctx, e, token)
		}
	}

	return fmt.Errorf("%w: '%v'", ErrUserNotFound, name)
}

// ActivityIDs returns the set of activity IDs in the user's worksheet.
func (l *Ledger) ActivityIDs(ctx context.Context, name string) (map[string]bool, error) {
	rows, err := l.store.Read(ctx, name, "A2:A")
	if err != nil {
		return nil, &StoreError{Op: "read activity IDs", Table: name, Err: err}
	}

	ids := map[string]bool{}
	for _, row := range rows {
		if len(row) > columnID {
			if id := strings.TrimSpace(row[columnID]); id != "" {
				ids[id] = true
			}
		}
	}

	return ids, nil
}

// LatestActivityDate returns the start date of the last row in the user's worksheet, or "" if the
// worksheet has no activities. Rows are appended in date order, so the last row is the latest
// activity of the most recent sync.
func (l *Ledger) LatestActivityDate(ctx context.Context, name string) (string, error) {
	rows, err := l.store.Read(ctx, name, fmt.Sprintf("A2:%v", Column(columnDate)))
	if err != nil {
		return "", &StoreError{Op: "read activities", Table: name, Err: err}
	}

	if len(rows) == 0 {
		return "", nil
	}

	last := rows[len(rows)-1]
	if len(last) <= columnDate || strings.TrimSpace(last[columnDate]) == "" {
		return "", &StoreError{
			Op:    "read activities",
			Table: name,
			Err:   fmt.Errorf("missing date in row %v", len(rows)+1),
		}
	}

	return strings.TrimSpace(last[columnDate]), nil
}

// RepairHeader rewrites the header row of the user's worksheet if it does not match Header.
// Returns true if the header was rewritten.
func (l *Ledger) RepairHeader(ctx context.Context, name string) (bool, error) {
	rows, err := l.store.Read(ctx, name, headerRange())
	if err != nil {
		return false, &StoreError{Op: "read header", Table: name, Err: err}
	}

	if len(rows) > 0 && reflect.DeepEqual(rows[0], Header) {
		return false, nil
	}

	if err := l.store.Write(ctx, name, headerRange(), [][]string{Header}); err != nil {
		return false, &StoreError{Op: "write header", Table: name, Err: err}
	}

	return true, nil
}

// Append writes the activities to the end of the user's worksheet, in the order given.
func (l *Ledger) Append(ctx context.Context, name string, activities []strava.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	rows := make([][]string, len(activities))
	for i, a := range activities {
		rows[i] = Row(a)
	}

	if err := l.store.Append(ctx, name, rows); err != nil {
		return &StoreError{Op: "append", Table: name, Err: err}
	}

	return nil
}

// Activities returns the user's worksheet, header row included.
func (l *Ledger) Activities(ctx context.Context, name string) ([][]string, error) {
	rows, err := l.store.Read(ctx, name, fmt.Sprintf("A1:%v", Column(len(Header)-1)))
	if err != nil {
		return nil, &StoreError{Op: "read activities", Table: name, Err: err}
	}

	return rows, nil
}

func (l *Ledger) users(ctx context.Context) ([]entry, error) {
	rows, err := l.store.Read(ctx, METADATA, "A2:C")
	if err != nil {
		return nil, &StoreError{Op: "read users", Table: METADATA, Err: err}
	}

	entries := []entry{}
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		e := entry{
			User: User{Name: row[0]},
			row:  i + 2,
		}

		if len(row) > 1 {
			e.AthleteID = row[1]
		}

		if len(row) > 2 {
			e.RefreshToken = row[2]
		}

		entries = append(entries, e)
	}

	return entries, nil
}

func (l *Ledger) updateRefreshToken(ctx context.Context, e entry, token string) error {
	if err := l.store.Write(ctx, METADATA, fmt.Sprintf("C%v", e.row), [][]string{{token}}); err != nil {
		return &StoreError{Op: "update refresh token", Table: METADATA, Err: err}
	}

	return nil
}

func headerRange() string {
	return fmt.Sprintf("A1:%v1", Column(len(Header)-1))
}
