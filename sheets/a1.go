package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCell is returned for a cell reference that is not in A1 notation.
var ErrInvalidCell = errors.New("sheets: invalid A1 cell reference")

// Cell is a zero-based grid position.
type Cell struct {
	Row    int64
	Column int64
}

// ParseCell parses an A1 reference such as "A1", "c7" or "$AB$12".
func ParseCell(ref string) (Cell, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ref), "$", ""))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(s) || i > 3 {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidCell, ref)
	}

	row, err := strconv.ParseInt(s[i:], 10, 64)
	if err != nil || row < 1 {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidCell, ref)
	}

	var col int64
	for _, c := range s[:i] {
		col = col*26 + int64(c-'A'+1)
	}
	return Cell{Row: row - 1, Column: col - 1}, nil
}

// ColumnName returns the A1 letters for a zero-based column index.
func ColumnName(col int64) string {
	var b []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// String renders the cell in A1 notation.
func (c Cell) String() string {
	return ColumnName(c.Column) + strconv.FormatInt(c.Row+1, 10)
}

// QuoteSheetName quotes a tab title for use in a range, doubling embedded quotes.
func QuoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// BoxRange renders a closed rectangle: 'Sheet'!A1:C1.
func BoxRange(sheet string, from, to Cell) string {
	return QuoteSheetName(sheet) + "!" + from.String() + ":" + to.String()
}

// OpenRange renders a range open at the bottom: 'Sheet'!A2:C.
func OpenRange(sheet string, from Cell, lastColumn int64) string {
	return QuoteSheetName(sheet) + "!" + from.String() + ":" + ColumnName(lastColumn)
}
