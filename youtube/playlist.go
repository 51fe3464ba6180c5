package youtube

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"ytsheets/internal/apierror"
	"ytsheets/internal/batch"
	"ytsheets/internal/logging"
)

const (
	// MaxPageSize is the largest page playlistItems.list will return.
	MaxPageSize = 50
	// MaxIDsPerLookup is the largest ID list videos.list accepts.
	MaxIDsPerLookup = 50
)

// Playlist fetches playlist membership and enriches it with video metadata.
type Playlist struct {
	source Source
	logger hclog.Logger
}

// NewPlaylist creates a pipeline reading from source.
func NewPlaylist(source Source, logger hclog.Logger) *Playlist {
	return &Playlist{
		source: source,
		logger: logging.OrNull(logger).Named("youtube"),
	}
}

// Videos returns every video in the playlist, in playlist order, with
// authoritative channel and formatted duration attached. pageSize is capped at
// MaxPageSize and only controls the page size; pagination always runs to the end.
// Failures are returned as *apierror.Error.
func (p *Playlist) Videos(ctx context.Context, playlistID string, pageSize int) ([]Video, error) {
	if playlistID == "" {
		return nil, apierror.Classify(ServiceName, OpFetchPlaylist, ErrInvalidPlaylistID)
	}

	p.logger.Debug("fetching playlist items", "playlist", playlistID)
	videos, err := p.fetchMembership(ctx, playlistID, pageSize)
	if err != nil {
		return nil, apierror.Classify(ServiceName, OpFetchPlaylist, err)
	}
	if len(videos) == 0 {
		p.logger.Warn("no videos found in playlist", "playlist", playlistID)
		return videos, nil
	}
	p.logger.Info("fetched playlist items", "playlist", playlistID, "count", len(videos))

	enriched, err := p.enrich(ctx, videos)
	if err != nil {
		return nil, apierror.Classify(ServiceName, OpFetchDurations, err)
	}
	return enriched, nil
}

// fetchMembership follows page tokens until the source reports no further pages.
func (p *Playlist) fetchMembership(ctx context.Context, playlistID string, pageSize int) ([]Video, error) {
	size := int64(pageSize)
	if size <= 0 || size > MaxPageSize {
		size = MaxPageSize
	}

	var (
		videos    []Video
		pageToken string
		seen      = make(map[string]bool)
	)
	for {
		page, err := p.source.ListPlaylistItems(ctx, playlistID, pageToken, size)
		if err != nil {
			return nil, err
		}
		videos = append(videos, page.Items...)
		p.logger.Debug("fetched playlist page", "items", len(page.Items), "total", len(videos))

		if page.NextPageToken == "" {
			return videos, nil
		}
		if seen[page.NextPageToken] {
			return nil, fmt.Errorf("youtube: page token %q repeated", page.NextPageToken)
		}
		seen[page.NextPageToken] = true
		pageToken = page.NextPageToken
	}
}

// enrich runs one metadata lookup per chunk of IDs concurrently, then merges
// the results back onto videos by ID. The first failing chunk fails the phase.
func (p *Playlist) enrich(ctx context.Context, videos []Video) ([]Video, error) {
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	chunks, err := batch.Chunk(ids, MaxIDsPerLookup)
	if err != nil {
		return nil, err
	}

	results := make([][]VideoMetadata, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			md, err := p.source.ListVideoMetadata(gctx, chunk)
			if err != nil {
				return err
			}
			results[i] = md
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]VideoMetadata, len(videos))
	for _, md := range results {
		for _, m := range md {
			byID[m.ID] = m
		}
	}

	out := make([]Video, len(videos))
	unmatched := 0
	for i, v := range videos {
		m, ok := byID[v.ID]
		if !ok {
			v.Duration = DurationUnavailable
			unmatched++
			out[i] = v
			continue
		}
		d, err := FormatDuration(m.Duration)
		if err != nil {
			return nil, fmt.Errorf("video %s: %w", v.ID, err)
		}
		v.Channel = m.ChannelTitle
		v.ChannelID = m.ChannelID
		v.Duration = d
		out[i] = v
	}

	p.logger.Debug("enriched videos", "lookups", len(chunks), "unmatched", unmatched)
	return out, nil
}
