package sheets

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"ytsheets/internal/apierror"
	"ytsheets/internal/logging"
	"ytsheets/youtube"
)

// ServiceName identifies Google Sheets in classified errors and logs.
const ServiceName = "Google Sheets"

// Operations reported by classified errors.
const (
	OpResolveSheet   = "resolving sheet"
	OpWriteHeader    = "writing header row"
	OpWriteRows      = "writing video rows"
	OpApplyBorders   = "applying borders"
)

// Target locates the table inside a spreadsheet.
type Target struct {
	SpreadsheetID string
	// SheetName is the tab title.
	SheetName string
	// StartCell is the top-left corner of the header row in A1 notation.
	StartCell string
}

// Summary counts what a publish wrote.
type Summary struct {
	UpdatedRows    int
	UpdatedColumns int
	UpdatedCells   int64
}

// Publisher overwrites the synced table: header, data rows, then borders.
type Publisher struct {
	writer TableWriter
	logger hclog.Logger
}

// NewPublisher creates a publisher using writer.
func NewPublisher(writer TableWriter, logger hclog.Logger) *Publisher {
	return &Publisher{
		writer: writer,
		logger: logging.OrNull(logger).Named("sheets"),
	}
}

// Publish writes videos to target. An empty list is a no-op: nothing is
// written, so an existing table is never replaced by an empty one.
// An invalid start cell returns an error wrapping ErrInvalidCell before
// anything is sent; remote failures are returned as *apierror.Error.
func (p *Publisher) Publish(ctx context.Context, target Target, videos []youtube.Video) (*Summary, error) {
	if len(videos) == 0 {
		p.logger.Info("no videos to write, leaving sheet untouched", "sheet", target.SheetName)
		return &Summary{}, nil
	}

	anchor, err := ParseCell(target.StartCell)
	if err != nil {
		return nil, err
	}

	sheetID, err := p.writer.SheetID(ctx, target.SpreadsheetID, target.SheetName)
	if err != nil {
		return nil, apierror.Classify(ServiceName, OpResolveSheet, err)
	}

	lastColumn := anchor.Column + Columns - 1
	headerRange := BoxRange(target.SheetName, anchor, Cell{Row: anchor.Row, Column: lastColumn})
	if _, err := p.writer.UpdateRange(ctx, target.SpreadsheetID, headerRange, ModeRaw, [][]interface{}{Header}); err != nil {
		return nil, apierror.Classify(ServiceName, OpWriteHeader, err)
	}

	rows := BuildRows(videos)
	dataRange := OpenRange(target.SheetName, Cell{Row: anchor.Row + 1, Column: anchor.Column}, lastColumn)
	cells, err := p.writer.UpdateRange(ctx, target.SpreadsheetID, dataRange, ModeFormula, rows)
	if err != nil {
		return nil, apierror.Classify(ServiceName, OpWriteRows, err)
	}

	summary := &Summary{
		UpdatedRows:    len(rows),
		UpdatedColumns: Columns,
		UpdatedCells:   cells,
	}
	p.logger.Info("wrote rows", "rows", summary.UpdatedRows, "columns", summary.UpdatedColumns, "cells", summary.UpdatedCells)

	grid := GridRange{
		SheetID:     sheetID,
		StartRow:    anchor.Row,
		EndRow:      anchor.Row + 1 + int64(len(rows)),
		StartColumn: anchor.Column,
		EndColumn:   anchor.Column + Columns,
	}
	if err := p.writer.ApplyBorders(ctx, target.SpreadsheetID, grid, DefaultBorder); err != nil {
		return nil, apierror.Classify(ServiceName, OpApplyBorders, err)
	}

	return summary, nil
}
