// Package sheets writes synced playlist rows into a Google Sheets tab.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"ytsheets/internal/logging"
)

// ErrSheetNotFound is returned by SheetID when no tab has the requested title
// and it could not be created.
var ErrSheetNotFound = errors.New("sheets: sheet not found")

// InputMode selects how the destination interprets written values.
type InputMode string

const (
	// ModeRaw stores values as literal text.
	ModeRaw InputMode = "RAW"
	// ModeFormula parses values as if typed by a user, so "=HYPERLINK(...)" renders as a link.
	ModeFormula InputMode = "USER_ENTERED"
)

// GridRange is a zero-based, end-exclusive rectangle on one tab.
type GridRange struct {
	SheetID     int64
	StartRow    int64
	EndRow      int64
	StartColumn int64
	EndColumn   int64
}

// Color is an RGB color with components in [0, 1].
type Color struct {
	Red, Green, Blue float64
}

// BorderStyle is applied to every edge and inner gridline of a range.
type BorderStyle struct {
	Style string
	Width int64
	Color Color
}

// DefaultBorder is a one-unit solid black line.
var DefaultBorder = BorderStyle{Style: "SOLID", Width: 1}

// TableWriter is the spreadsheet side of the pipeline. APIWriter is the
// production implementation.
type TableWriter interface {
	// UpdateRange overwrites rangeSpec with rows and returns the number of cells updated.
	UpdateRange(ctx context.Context, spreadsheetID, rangeSpec string, mode InputMode, rows [][]interface{}) (int64, error)
	// ApplyBorders draws style around and inside grid.
	ApplyBorders(ctx context.Context, spreadsheetID string, grid GridRange, style BorderStyle) error
	// SheetID returns the numeric ID of the tab titled title.
	SheetID(ctx context.Context, spreadsheetID, title string) (int64, error)
}

// APIWriter implements TableWriter using Google Sheets API v4.
type APIWriter struct {
	service *sheets.Service
	logger  hclog.Logger
	// CreateMissing adds the tab when SheetID does not find it.
	CreateMissing bool
}

// NewAPIWriter creates a writer from client options, typically option.WithHTTPClient
// with an authenticated session.
func NewAPIWriter(ctx context.Context, logger hclog.Logger, opts ...option.ClientOption) (*APIWriter, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &APIWriter{
		service:       service,
		logger:        logging.OrNull(logger).Named("sheets"),
		CreateMissing: true,
	}, nil
}

// UpdateRange writes rows to rangeSpec.
func (w *APIWriter) UpdateRange(ctx context.Context, spreadsheetID, rangeSpec string, mode InputMode, rows [][]interface{}) (int64, error) {
	resp, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeSpec, &sheets.ValueRange{Values: rows}).
		ValueInputOption(string(mode)).
		Context(ctx).
		Do()
	if err != nil {
		return 0, err
	}
	w.logger.Debug("updated range", "range", rangeSpec, "mode", mode, "cells", resp.UpdatedCells)
	return resp.UpdatedCells, nil
}

// ApplyBorders sends a single updateBorders request.
func (w *APIWriter) ApplyBorders(ctx context.Context, spreadsheetID string, grid GridRange, style BorderStyle) error {
	border := func() *sheets.Border {
		return &sheets.Border{
			Style: style.Style,
			Width: style.Width,
			Color: &sheets.Color{
				Red:             style.Color.Red,
				Green:           style.Color.Green,
				Blue:            style.Color.Blue,
				ForceSendFields: []string{"Red", "Green", "Blue"},
			},
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			UpdateBorders: &sheets.UpdateBordersRequest{
				Range: &sheets.GridRange{
					SheetId:          grid.SheetID,
					StartRowIndex:    grid.StartRow,
					EndRowIndex:      grid.EndRow,
					StartColumnIndex: grid.StartColumn,
					EndColumnIndex:   grid.EndColumn,
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Top:             border(),
				Bottom:          border(),
				Left:            border(),
				Right:           border(),
				InnerHorizontal: border(),
				InnerVertical:   border(),
			},
		}},
	}

	if _, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return err
	}
	w.logger.Debug("applied borders", "sheet_id", grid.SheetID, "rows", grid.EndRow-grid.StartRow)
	return nil
}

// SheetID looks the tab up by title, creating it when CreateMissing is set.
func (w *APIWriter) SheetID(ctx context.Context, spreadsheetID, title string) (int64, error) {
	ss, err := w.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return 0, err
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, nil
		}
	}

	if !w.CreateMissing {
		return 0, fmt.Errorf("%w: %q", ErrSheetNotFound, title)
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("%w: %q", ErrSheetNotFound, title)
	}

	id := resp.Replies[0].AddSheet.Properties.SheetId
	w.logger.Info("created sheet", "title", title, "sheet_id", id)
	return id, nil
}
