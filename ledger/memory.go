package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory Store with the same read/write/append semantics as a Google Sheets
// spreadsheet (as far as the ledger uses them).
type Memory struct {
	tables map[string][][]string
	order  []string
	guard  sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{
		tables: map[string][][]string{},
		order:  []string{},
	}
}

func (m *Memory) Read(ctx context.Context, table, area string) ([][]string, error) {
	m.guard.RLock()
	defer m.guard.RUnlock()

	grid, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("unable to parse range: %v", A1(table, area))
	}

	r, err := parseRange(area)
	if err != nil {
		return nil, err
	}

	rows := [][]string{}
	for i := r.top; i < len(grid) && (r.bottom < 0 || i <= r.bottom); i++ {
		row := []string{}
		for j := r.left; j < len(grid[i]) && (r.right < 0 || j <= r.right); j++ {
			row = append(row, grid[i][j])
		}

		rows = append(rows, trim(row))
	}

	// ... trailing empty rows are not returned
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}

	return rows, nil
}

func (m *Memory) Write(ctx context.Context, table, area string, rows [][]string) error {
	m.guard.Lock()
	defer m.guard.Unlock()

	grid, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("unable to parse range: %v", A1(table, area))
	}

	r, err := parseRange(area)
	if err != nil {
		return err
	}

	if r.bottom >= 0 && len(rows) > r.bottom-r.top+1 {
		return fmt.Errorf("requested writing within range %v, but tried writing to row %v", A1(table, area), r.top+len(rows))
	}

	for i, row := range rows {
		if r.right >= 0 && len(row) > r.right-r.left+1 {
			return fmt.Errorf("requested writing within range %v, but tried writing to column %v", A1(table, area), Column(r.left+len(row)-1))
		}

		for len(grid) <= r.top+i {
			grid = append(grid, []string{})
		}

		for j, v := range row {
			for len(grid[r.top+i]) <= r.left+j {
				grid[r.top+i] = append(grid[r.top+i], "")
			}

			grid[r.top+i][r.left+j] = v
		}
	}

	m.tables[table] = grid

	return nil
}

// Append adds the rows after the last non-empty row of the table.
func (m *Memory) Append(ctx context.Context, table string, rows [][]string) error {
	m.guard.Lock()
	defer m.guard.Unlock()

	grid, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("unable to parse range: %v", A1(table, "A:A"))
	}

	last := len(grid)
	for last > 0 && len(trim(grid[last-1])) == 0 {
		last--
	}

	grid = grid[:last]
	for _, row := range rows {
		grid = append(grid, append([]string{}, row...))
	}

	m.tables[table] = grid

	return nil
}

func (m *Memory) CreateTable(ctx context.Context, name string) error {
	m.guard.Lock()
	defer m.guard.Unlock()

	if _, ok := m.tables[name]; ok {
		return ErrTableExists
	}

	m.tables[name] = [][]string{}
	m.order = append(m.order, name)

	return nil
}

func (m *Memory) Tables(ctx context.Context) ([]string, error) {
	m.guard.RLock()
	defer m.guard.RUnlock()

	return append([]string{}, m.order...), nil
}

func trim(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}

	return row[:n]
}
