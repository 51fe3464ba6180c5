// Package syncer ties the playlist pipeline to the sheet publisher and runs
// the combination under a bounded retry policy.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"ytsheets/internal/logging"
	"ytsheets/sheets"
	"ytsheets/youtube"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultSheetName  = "YouTube Videos"
	DefaultStartCell  = "A1"
	DefaultMaxResults = 50
)

// ErrInvalidRequest is returned for a request that can never succeed, such as
// a missing playlist ID. It is never retried.
var ErrInvalidRequest = errors.New("syncer: invalid request")

// Options tune where and how a playlist is written.
type Options struct {
	// SheetName is the destination tab title.
	SheetName string
	// StartCell anchors the header row, in A1 notation.
	StartCell string
	// MaxResults is the playlist page size. It does not limit the total.
	MaxResults int
}

func (o Options) withDefaults() Options {
	if o.SheetName == "" {
		o.SheetName = DefaultSheetName
	}
	if o.StartCell == "" {
		o.StartCell = DefaultStartCell
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	return o
}

// Request identifies one playlist-to-sheet sync.
type Request struct {
	PlaylistID    string
	SpreadsheetID string
	Options       Options
}

// Validate reports every problem with the request at once.
func (r Request) Validate() error {
	var problems []string
	if strings.TrimSpace(r.PlaylistID) == "" {
		problems = append(problems, "playlist ID is required")
	}
	if strings.TrimSpace(r.SpreadsheetID) == "" {
		problems = append(problems, "spreadsheet ID is required")
	}
	if r.Options.StartCell != "" {
		if _, err := sheets.ParseCell(r.Options.StartCell); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// Result summarizes a successful sync.
type Result struct {
	VideosProcessed int
	UpdatedRows     int
	UpdatedColumns  int
	UpdatedCells    int64
	// QuotaUnits is the YouTube quota spent by this sync, 0 when the source does not count it.
	QuotaUnits int
}

// quotaCounter is implemented by sources that count the API quota they spend.
type quotaCounter interface {
	QuotaUsed() int
}

// Syncer performs a single, unretried sync.
type Syncer struct {
	source    youtube.Source
	playlist  *youtube.Playlist
	publisher *sheets.Publisher
	logger    hclog.Logger
}

// New creates a syncer reading from source and writing through writer.
func New(source youtube.Source, writer sheets.TableWriter, logger hclog.Logger) *Syncer {
	logger = logging.OrNull(logger)
	return &Syncer{
		source:    source,
		playlist:  youtube.NewPlaylist(source, logger),
		publisher: sheets.NewPublisher(writer, logger),
		logger:    logger.Named("syncer"),
	}
}

// SyncPlaylist fetches the playlist and overwrites the destination table with it.
// A request that can never succeed returns an error wrapping ErrInvalidRequest
// without contacting either API. Errors from either side are *apierror.Error values.
func (s *Syncer) SyncPlaylist(ctx context.Context, playlistID, spreadsheetID string, opts Options) (*Result, error) {
	req := Request{PlaylistID: playlistID, SpreadsheetID: spreadsheetID, Options: opts}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	s.logger.Info("starting sync", "playlist", playlistID, "spreadsheet", spreadsheetID, "sheet", opts.SheetName)

	quotaBefore := s.quotaUsed()
	videos, err := s.playlist.Videos(ctx, playlistID, opts.MaxResults)
	if err != nil {
		return nil, err
	}

	summary, err := s.publisher.Publish(ctx, sheets.Target{
		SpreadsheetID: spreadsheetID,
		SheetName:     opts.SheetName,
		StartCell:     opts.StartCell,
	}, videos)
	if err != nil {
		return nil, err
	}

	return &Result{
		VideosProcessed: len(videos),
		UpdatedRows:     summary.UpdatedRows,
		UpdatedColumns:  summary.UpdatedColumns,
		UpdatedCells:    summary.UpdatedCells,
		QuotaUnits:      s.quotaUsed() - quotaBefore,
	}, nil
}

func (s *Syncer) quotaUsed() int {
	if qc, ok := s.source.(quotaCounter); ok {
		return qc.QuotaUsed()
	}
	return 0
}
