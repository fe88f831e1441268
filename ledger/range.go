package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// cells is a parsed A1 cell range with 0-based, inclusive bounds. A bottom of -1 means the range
// extends to the last row.
type cells struct {
	left   int
	top    int
	right  int
	bottom int
}

var a1 = regexp.MustCompile(`^([a-zA-Z]+)?([0-9]+)?(?::([a-zA-Z]+)?([0-9]+)?)?$`)

func parseRange(area string) (*cells, error) {
	match := a1.FindStringSubmatch(strings.TrimSpace(area))
	if match == nil || (match[1] == "" && match[2] == "") {
		return nil, fmt.Errorf("invalid range '%s'", area)
	}

	r := cells{
		left:   0,
		top:    0,
		right:  -1,
		bottom: -1,
	}

	if match[1] != "" {
		r.left = column(match[1])
	}

	if match[2] != "" {
		top, _ := strconv.Atoi(match[2])
		if top < 1 {
			return nil, fmt.Errorf("invalid range '%s'", area)
		}
		r.top = top - 1
	}

	// ... single cell
	if !strings.Contains(area, ":") {
		r.right = r.left
		r.bottom = r.top
		return &r, nil
	}

	if match[3] != "" {
		r.right = column(match[3])
	}

	if match[4] != "" {
		bottom, _ := strconv.Atoi(match[4])
		r.bottom = bottom - 1
	}

	if (r.right >= 0 && r.right < r.left) || (r.bottom >= 0 && r.bottom < r.top) {
		return nil, fmt.Errorf("invalid range '%s'", area)
	}

	return &r, nil
}

// column converts a column letter (A, B, ..., Z, AA, ...) to a 0-based index.
func column(letters string) int {
	ix := 0
	for _, ch := range strings.ToUpper(letters) {
		ix = ix*26 + int(ch-'A') + 1
	}

	return ix - 1
}

// Column converts a 0-based column index to the column letter.
func Column(ix int) string {
	s := ""
	for n := ix + 1; n > 0; n = (n - 1) / 26 {
		s = string(rune('A'+(n-1)%26)) + s
	}

	return s
}
