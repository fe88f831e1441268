package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/9Nov/Strava-Sync/strava"
)

func newLedger(t *testing.T) (*Ledger, *Memory) {
	t.Helper()

	store := NewMemory()
	l := New(store)

	created, err := l.Init(context.Background())
	require.NoError(t, err)
	require.True(t, created)

	return l, store
}

func TestInit(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()

	rows, err := store.Read(ctx, METADATA, "A1:C1")
	require.NoError(t, err)
	require.Equal(t, [][]string{MetadataHeader}, rows)

	created, err := l.Init(ctx)
	require.NoError(t, err)
	require.False(t, created)

	tables, err := store.Tables(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{METADATA}, tables)
}

func TestLinkNewUser(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()

	created, err := l.Link(ctx, User{Name: "Jane Doe", AthleteID: "227615", RefreshToken: "refresh-1"})
	require.NoError(t, err)
	require.True(t, created)

	tables, err := store.Tables(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{METADATA, "Jane Doe"}, tables)

	header, err := store.Read(ctx, "Jane Doe", "A1:Q1")
	require.NoError(t, err)
	require.Equal(t, [][]string{Header}, header)
	require.Len(t, header[0], 17)

	metadata, err := store.Read(ctx, METADATA, "A2:C")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"Jane Doe", "227615", "refresh-1"}}, metadata)
}

func TestLinkExistingUser(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()

	_, err := l.Link(ctx, User{Name: "Jane Doe", AthleteID: "227615", RefreshToken: "refresh-1"})
	require.NoError(t, err)
	_, err = l.Link(ctx, User{Name: "John Smith", AthleteID: "331100", RefreshToken: "refresh-2"})
	require.NoError(t, err)

	created, err := l.Link(ctx, User{Name: "Jane Doe", AthleteID: "999", RefreshToken: "refresh-3"})
	require.NoError(t, err)
	require.False(t, created)

	tables, err := store.Tables(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{METADATA, "Jane Doe", "John Smith"}, tables)

	metadata, err := store.Read(ctx, METADATA, "A2:C")
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Jane Doe", "227615", "refresh-3"},
		{"John Smith", "331100", "refresh-2"},
	}, metadata)
}

func TestLinkAdoptsExistingWorksheet(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, "Jane Doe"))
	require.NoError(t, store.Write(ctx, "Jane Doe", "A1:B2", [][]string{{"Activity ID", "Name"}, {"1", "Old"}}))

	created, err := l.Link(ctx, User{Name: "Jane Doe", AthleteID: "227615", RefreshToken: "refresh-1"})
	require.NoError(t, err)
	require.True(t, created)

	rows, err := store.Read(ctx, "Jane Doe", "A2:B")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"1", "Old"}}, rows)
}

func TestLinkWithInvalidName(t *testing.T) {
	l, _ := newLedger(t)

	for _, name := range []string{"", "   ", METADATA} {
		_, err := l.Link(context.Background(), User{Name: name, RefreshToken: "refresh-1"})
		require.ErrorIs(t, err, ErrInvalidName)
	}
}

func TestUser(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	_, err := l.Link(ctx, User{Name: "Jane Doe", AthleteID: "227615", RefreshToken: "refresh-1"})
	require.NoError(t, err)

	user, err := l.User(ctx, "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, User{Name: "Jane Doe", AthleteID: "227615", RefreshToken: "refresh-1"}, *user)

	_, err = l.User(ctx, "jane doe")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUsersSkipsBlankRows(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, METADATA, "A2:C4", [][]string{
		{"Jane Doe", "227615", "refresh-1"},
		{},
		{"John Smith", "331100"},
	}))

	users, err := l.Users(ctx)
	require.NoError(t, err)
	require.Equal(t, []User{
		{Name: "Jane Doe", AthleteID: "227615", RefreshToken: "refresh-1"},
		{Name: "John Smith", AthleteID: "331100"},
	}, users)

	require.NoError(t, l.UpdateRefreshToken(ctx, "John Smith", "refresh-2"))

	rows, err := store.Read(ctx, METADATA, "A4:C4")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"John Smith", "331100", "refresh-2"}}, rows)
}

func TestUpdateRefreshTokenForUnknownUser(t *testing.T) {
	l, _ := newLedger(t)

	err := l.UpdateRefreshToken(context.Background(), "Nobody", "refresh-1")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAppendAndReadBack(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	_, err := l.Link(ctx, User{Name: "Jane Doe", AthleteID: "227615", RefreshToken: "refresh-1"})
	require.NoError(t, err)

	date, err := l.LatestActivityDate(ctx, "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, "", date)

	activities := []strava.Activity{
		{ID: 101, Name: "Run", StartDateLocal: "2024-03-09T07:00:00Z"},
		{ID: 102, Name: "Ride", StartDateLocal: "2024-03-10T08:00:00Z"},
	}

	require.NoError(t, l.Append(ctx, "Jane Doe", activities))
	require.NoError(t, l.Append(ctx, "Jane Doe", nil))

	ids, err := l.ActivityIDs(ctx, "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"101": true, "102": true}, ids)

	date, err = l.LatestActivityDate(ctx, "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, "2024-03-10T08:00:00Z", date)

	rows, err := l.Activities(ctx, "Jane Doe")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, Header, rows[0])
}

func TestLatestActivityDateWithMissingDate(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, "Jane Doe"))
	require.NoError(t, store.Write(ctx, "Jane Doe", "A1:B2", [][]string{{"Activity ID", "Name"}, {"1", "Old"}}))

	_, err := l.LatestActivityDate(ctx, "Jane Doe")

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, "Jane Doe", storeErr.Table)
}

func TestRepairHeader(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, "Jane Doe"))
	require.NoError(t, store.Write(ctx, "Jane Doe", "A1:F2", [][]string{
		{"Activity ID", "Name", "Type", "Distance (km)", "Time (min)", "Date"},
		{"1", "Old", "Run", "5.00", "30.00", "2023-01-01T08:00:00Z"},
	}))

	repaired, err := l.RepairHeader(ctx, "Jane Doe")
	require.NoError(t, err)
	require.True(t, repaired)

	rows, err := store.Read(ctx, "Jane Doe", "A1:Q")
	require.NoError(t, err)
	require.Equal(t, Header, rows[0])
	require.Equal(t, []string{"1", "Old", "Run", "5.00", "30.00", "2023-01-01T08:00:00Z"}, rows[1])

	repaired, err = l.RepairHeader(ctx, "Jane Doe")
	require.NoError(t, err)
	require.False(t, repaired)
}

func TestStoreErrors(t *testing.T) {
	l := New(NewMemory())
	ctx := context.Background()

	_, err := l.ActivityIDs(ctx, "Nobody")

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, "Nobody", storeErr.Table)

	_, err = l.Users(ctx)
	require.True(t, errors.As(err, &storeErr))
	require.Equal(t, METADATA, storeErr.Table)
}
