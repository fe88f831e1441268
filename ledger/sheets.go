package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"
)

// Sheets is a Store backed by a Google Sheets spreadsheet, with one worksheet per table.
type Sheets struct {
	google      *sheets.Service
	spreadsheet string
}

func NewSheets(google *sheets.Service, spreadsheet string) *Sheets {
	return &Sheets{
		google:      google,
		spreadsheet: spreadsheet,
	}
}

func (s *Sheets) Read(ctx context.Context, table, cells string) ([][]string, error) {
	response, err := s.google.Spreadsheets.Values.Get(s.spreadsheet, A1(table, cells)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(response.Values))
	for _, values := range response.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = fmt.Sprintf("%v", v)
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func (s *Sheets) Write(ctx context.Context, table, cells string, rows [][]string) error {
	values := sheets.ValueRange{
		Range:  A1(table, cells),
		Values: toValues(rows),
	}

	if _, err := s.google.Spreadsheets.Values.Update(s.spreadsheet, values.Range, &values).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return err
	}

	return nil
}

func (s *Sheets) Append(ctx context.Context, table string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	width := 1
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	values := sheets.ValueRange{
		Values: toValues(rows),
	}

	area := A1(table, fmt.Sprintf("A:%v", Column(width-1)))

	if _, err := s.google.Spreadsheets.Values.Append(s.spreadsheet, area, &values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do(); err != nil {
		return err
	}

	return nil
}

func (s *Sheets) CreateTable(ctx context.Context, name string) error {
	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			&sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: name,
					},
				},
			},
		},
	}

	if _, err := s.google.Spreadsheets.BatchUpdate(s.spreadsheet, &rq).Context(ctx).Do(); err != nil {
		var apierr *googleapi.Error
		if errors.As(err, &apierr) && apierr.Code == http.StatusBadRequest && strings.Contains(apierr.Message, "already exists") {
			return ErrTableExists
		}

		return err
	}

	return nil
}

func (s *Sheets) Tables(ctx context.Context) ([]string, error) {
	spreadsheet, err := s.google.Spreadsheets.Get(s.spreadsheet).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	tables := []string{}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			tables = append(tables, sheet.Properties.Title)
		}
	}

	return tables, nil
}

func toValues(rows [][]string) [][]interface{} {
	list := make([][]interface{}, len(rows))
	for i, row := range rows {
		list[i] = make([]interface{}, len(row))
		for j, v := range row {
			list[i][j] = v
		}
	}

	return list
}
