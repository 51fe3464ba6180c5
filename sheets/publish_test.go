package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytsheets/internal/apierror"
	"ytsheets/youtube"
)

type updateCall struct {
	spreadsheetID string
	rangeSpec     string
	mode          InputMode
	rows          [][]interface{}
}

type borderCall struct {
	spreadsheetID string
	grid          GridRange
	style         BorderStyle
}

// fakeWriter records every call and fails the ones configured to fail.
type fakeWriter struct {
	sheetID      int64
	reportCells  int64
	failSheetID  error
	failHeader   error
	failRows     error
	failBorders  error
	sheetLookups []string
	updates      []updateCall
	borders      []borderCall
}

func (f *fakeWriter) UpdateRange(ctx context.Context, spreadsheetID, rangeSpec string, mode InputMode, rows [][]interface{}) (int64, error) {
	f.updates = append(f.updates, updateCall{spreadsheetID, rangeSpec, mode, rows})
	if mode == ModeRaw && f.failHeader != nil {
		return 0, f.failHeader
	}
	if mode == ModeFormula && f.failRows != nil {
		return 0, f.failRows
	}
	if mode == ModeFormula {
		return f.reportCells, nil
	}
	return int64(len(rows) * Columns), nil
}

func (f *fakeWriter) ApplyBorders(ctx context.Context, spreadsheetID string, grid GridRange, style BorderStyle) error {
	f.borders = append(f.borders, borderCall{spreadsheetID, grid, style})
	return f.failBorders
}

func (f *fakeWriter) SheetID(ctx context.Context, spreadsheetID, title string) (int64, error) {
	f.sheetLookups = append(f.sheetLookups, title)
	return f.sheetID, f.failSheetID
}

func twoVideos() []youtube.Video {
	return []youtube.Video{
		{ID: "v1", Title: "Title A", Channel: "Chan A", ChannelID: "chanA", Duration: "1h"},
		{ID: "v2", Title: "Title B", Channel: "Chan B", ChannelID: "chanB", Duration: "5m"},
	}
}

func defaultTarget() Target {
	return Target{SpreadsheetID: "SS1", SheetName: "YouTube Videos", StartCell: "A1"}
}

func TestPublishTwoVideos(t *testing.T) {
	w := &fakeWriter{sheetID: 42, reportCells: 6}

	summary, err := NewPublisher(w, nil).Publish(context.Background(), defaultTarget(), twoVideos())
	require.NoError(t, err)

	require.Len(t, w.updates, 2)
	header := w.updates[0]
	assert.Equal(t, "SS1", header.spreadsheetID)
	assert.Equal(t, "'YouTube Videos'!A1:C1", header.rangeSpec)
	assert.Equal(t, ModeRaw, header.mode)
	assert.Equal(t, [][]interface{}{{"Title", "Channel", "Duration"}}, header.rows)

	data := w.updates[1]
	assert.Equal(t, "'YouTube Videos'!A2:C", data.rangeSpec)
	assert.Equal(t, ModeFormula, data.mode)
	assert.Equal(t, [][]interface{}{
		{`=HYPERLINK("https://youtube.com/watch?v=v1", "Title A")`, `=HYPERLINK("https://www.youtube.com/channel/chanA", "Chan A")`, "1h"},
		{`=HYPERLINK("https://youtube.com/watch?v=v2", "Title B")`, `=HYPERLINK("https://www.youtube.com/channel/chanB", "Chan B")`, "5m"},
	}, data.rows)

	require.Len(t, w.borders, 1)
	assert.Equal(t, GridRange{SheetID: 42, StartRow: 0, EndRow: 3, StartColumn: 0, EndColumn: 3}, w.borders[0].grid)
	assert.Equal(t, BorderStyle{Style: "SOLID", Width: 1}, w.borders[0].style)

	assert.Equal(t, &Summary{UpdatedRows: 2, UpdatedColumns: 3, UpdatedCells: 6}, summary)
}

func TestPublishUnreportedCellsDefaultsToZero(t *testing.T) {
	w := &fakeWriter{}

	summary, err := NewPublisher(w, nil).Publish(context.Background(), defaultTarget(), twoVideos())
	require.NoError(t, err)
	assert.Zero(t, summary.UpdatedCells)
	assert.Equal(t, 2, summary.UpdatedRows)
}

func TestPublishEmptyIsNoop(t *testing.T) {
	w := &fakeWriter{}

	summary, err := NewPublisher(w, nil).Publish(context.Background(), defaultTarget(), nil)
	require.NoError(t, err)

	assert.Equal(t, &Summary{}, summary)
	assert.Empty(t, w.updates)
	assert.Empty(t, w.borders)
	assert.Empty(t, w.sheetLookups)
}

func TestPublishCustomStartCell(t *testing.T) {
	w := &fakeWriter{sheetID: 7}
	target := Target{SpreadsheetID: "SS1", SheetName: "Music", StartCell: "B3"}

	_, err := NewPublisher(w, nil).Publish(context.Background(), target, twoVideos())
	require.NoError(t, err)

	assert.Equal(t, "'Music'!B3:D3", w.updates[0].rangeSpec)
	assert.Equal(t, "'Music'!B4:D", w.updates[1].rangeSpec)
	assert.Equal(t, GridRange{SheetID: 7, StartRow: 2, EndRow: 5, StartColumn: 1, EndColumn: 4}, w.borders[0].grid)
	assert.Equal(t, []string{"Music"}, w.sheetLookups)
}

func TestPublishFailures(t *testing.T) {
	boom := errors.New("backendError")
	tests := []struct {
		name    string
		writer  *fakeWriter
		wantOp  string
		updates int
		borders int
	}{
		{"sheet lookup", &fakeWriter{failSheetID: boom}, OpResolveSheet, 0, 0},
		{"header", &fakeWriter{failHeader: boom}, OpWriteHeader, 1, 0},
		{"rows", &fakeWriter{failRows: boom}, OpWriteRows, 2, 0},
		{"borders", &fakeWriter{failBorders: boom}, OpApplyBorders, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPublisher(tt.writer, nil).Publish(context.Background(), defaultTarget(), twoVideos())

			var apiErr *apierror.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, ServiceName, apiErr.Service)
			assert.Equal(t, tt.wantOp, apiErr.Operation)
			assert.ErrorIs(t, err, boom)
			assert.Len(t, tt.writer.updates, tt.updates)
			assert.Len(t, tt.writer.borders, tt.borders)
		})
	}
}

func TestPublishInvalidStartCell(t *testing.T) {
	w := &fakeWriter{}
	target := Target{SpreadsheetID: "SS1", SheetName: "S", StartCell: "nope"}

	_, err := NewPublisher(w, nil).Publish(context.Background(), target, twoVideos())
	assert.ErrorIs(t, err, ErrInvalidCell)

	var apiErr *apierror.Error
	assert.False(t, errors.As(err, &apiErr), "invalid start cell must not look like a Sheets API failure")
	assert.Empty(t, w.updates)
	assert.Empty(t, w.sheetLookups)
}
