package sheets

import (
	"fmt"
	"strings"

	"ytsheets/youtube"
)

// Header is the fixed first row of the synced table.
var Header = []interface{}{"Title", "Channel", "Duration"}

// Columns is the width of the synced table.
const Columns = 3

// EscapeFormulaString makes s safe inside a double-quoted formula literal by
// doubling every quote character.
func EscapeFormulaString(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// Hyperlink builds a HYPERLINK formula showing label and pointing at url.
func Hyperlink(url, label string) string {
	return fmt.Sprintf(`=HYPERLINK("%s", "%s")`, EscapeFormulaString(url), EscapeFormulaString(label))
}

// BuildRows turns videos into [title link, channel link, duration] rows, in order.
// The duration cell is always a plain value.
func BuildRows(videos []youtube.Video) [][]interface{} {
	rows := make([][]interface{}, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []interface{}{
			Hyperlink(v.VideoURL(), v.Title),
			Hyperlink(v.ChannelURL(), v.Channel),
			v.Duration,
		})
	}
	return rows
}
