package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/9Nov/Strava-Sync/ledger"
)

// activitiesToTSV writes an activity worksheet (header row included) as TSV. The known columns
// are written in the standard order followed by any other columns in worksheet order. Rows
// without a numeric activity ID are skipped.
func activitiesToTSV(f io.Writer, rows [][]string) error {
	if len(rows) == 0 {
		return fmt.Errorf("Empty sheet")
	}

	// .. build index
	index := map[string]int{}
	for i, v := range rows[0] {
		k := normalise(v)
		if k == "" {
			continue
		}

		if _, ok := index[k]; ok {
			return fmt.Errorf("Duplicate column name '%s'", v)
		}

		index[k] = i
	}

	if _, ok := index[normalise(ledger.Header[0])]; !ok {
		return fmt.Errorf("Missing '%v' column", ledger.Header[0])
	}

	// ... header
	header := []string{}
	columns := []int{}
	known := map[string]bool{}

	for _, h := range ledger.Header {
		k := normalise(h)
		known[k] = true

		if ix, ok := index[k]; ok {
			header = append(header, clean(rows[0][ix]))
			columns = append(columns, ix)
		}
	}

	for i, v := range rows[0] {
		if k := normalise(v); k != "" && !known[k] {
			header = append(header, clean(v))
			columns = append(columns, i)
		}
	}

	// ... records
	id := regexp.MustCompile(`^\s*[0-9]+\s*$`)
	records := [][]string{}

	for _, row := range rows[1:] {
		if ix := index[normalise(ledger.Header[0])]; ix >= len(row) || !id.MatchString(row[ix]) {
			continue
		}

		record := []string{}
		for _, ix := range columns {
			v := ""
			if ix < len(row) {
				v = row[ix]
			}

			record = append(record, clean(v))
		}

		records = append(records, record)
	}

	// ... write to file
	w := csv.NewWriter(f)
	w.Comma = '\t'

	w.Write(header)
	for _, record := range records {
		w.Write(record)
	}

	w.Flush()

	return w.Error()
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}

// clean collapses embedded tabs and line breaks so that every record is a single TSV line.
func clean(v string) string {
	return strings.TrimSpace(regexp.MustCompile(`[\t\r\n]+`).ReplaceAllString(v, " "))
}
