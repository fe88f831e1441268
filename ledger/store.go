package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store is a spreadsheet-like backend of named tables. Cell ranges are in A1 notation relative to
// the table e.g. "A2:F" or "A1:Q1". Rows returned by Read have trailing empty cells and trailing
// empty rows trimmed.
type Store interface {
	Read(ctx context.Context, table, cells string) ([][]string, error)
	Write(ctx context.Context, table, cells string, rows [][]string) error
	Append(ctx context.Context, table string, rows [][]string) error
	CreateTable(ctx context.Context, name string) error
	Tables(ctx context.Context) ([]string, error)
}

// ErrTableExists is returned by Store.CreateTable if a table with the same name already exists.
var ErrTableExists = errors.New("table already exists")

// StoreError wraps a failed backend operation with the operation and table name.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%v failed (%v)", e.Op, e.Err)
	}

	return fmt.Sprintf("%v '%v' failed (%v)", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// A1 returns the fully qualified A1 range for a cell range in a table. The table name is always
// quoted so that names with spaces or punctuation address the correct sheet.
func A1(table, cells string) string {
	return fmt.Sprintf("'%v'!%v", strings.ReplaceAll(table, "'", "''"), cells)
}
