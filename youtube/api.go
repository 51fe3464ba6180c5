package youtube

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"ytsheets/internal/logging"
)

// Quota cost per call of the endpoints used by APISource.
const (
	quotaPlaylistItemsList = 1
	quotaVideosList        = 1
)

// APISource implements Source using YouTube Data API v3.
type APISource struct {
	service *youtube.Service
	logger  hclog.Logger

	mu        sync.Mutex
	quotaUsed int
}

// NewAPISource creates a source from client options, typically
// option.WithHTTPClient with an authenticated session or option.WithAPIKey.
func NewAPISource(ctx context.Context, logger hclog.Logger, opts ...option.ClientOption) (*APISource, error) {
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &APISource{
		service: service,
		logger:  logging.OrNull(logger).Named("youtube"),
	}, nil
}

// ListPlaylistItems fetches one page of playlist items.
func (a *APISource) ListPlaylistItems(ctx context.Context, playlistID, pageToken string, pageSize int64) (*PlaylistPage, error) {
	call := a.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, err
	}
	a.trackQuotaUsage(quotaPlaylistItemsList)

	page := &PlaylistPage{
		Items:         make([]Video, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		if v, ok := videoFromPlaylistItem(item); ok {
			page.Items = append(page.Items, v)
		}
	}
	return page, nil
}

// ListVideoMetadata looks up duration and owner channel for the given IDs.
func (a *APISource) ListVideoMetadata(ctx context.Context, ids []string) ([]VideoMetadata, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	resp, err := a.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	a.trackQuotaUsage(quotaVideosList)

	out := make([]VideoMetadata, 0, len(resp.Items))
	for _, item := range resp.Items {
		md := VideoMetadata{ID: item.Id}
		if item.ContentDetails != nil {
			md.Duration = item.ContentDetails.Duration
		}
		if item.Snippet != nil {
			md.ChannelTitle = item.Snippet.ChannelTitle
			md.ChannelID = item.Snippet.ChannelId
		}
		out = append(out, md)
	}
	return out, nil
}

// QuotaUsed returns the quota units consumed by this source so far.
func (a *APISource) QuotaUsed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quotaUsed
}

func (a *APISource) trackQuotaUsage(units int) {
	a.mu.Lock()
	a.quotaUsed += units
	used := a.quotaUsed
	a.mu.Unlock()
	a.logger.Trace("quota usage", "units", units, "total", used)
}

// videoFromPlaylistItem maps a playlist item to a Video. The channel reported
// here prefers the video owner and falls back to the playlist owner; enrichment
// replaces it with the authoritative value.
func videoFromPlaylistItem(item *youtube.PlaylistItem) (Video, bool) {
	var v Video
	if item.ContentDetails != nil {
		v.ID = item.ContentDetails.VideoId
	}
	if s := item.Snippet; s != nil {
		if v.ID == "" && s.ResourceId != nil {
			v.ID = s.ResourceId.VideoId
		}
		v.Title = s.Title
		v.Description = s.Description
		v.PublishedAt = s.PublishedAt
		v.Channel = s.VideoOwnerChannelTitle
		v.ChannelID = s.VideoOwnerChannelId
		if v.Channel == "" {
			v.Channel = s.ChannelTitle
		}
		if v.ChannelID == "" {
			v.ChannelID = s.ChannelId
		}
	}
	return v, v.ID != ""
}
