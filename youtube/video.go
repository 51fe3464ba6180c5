// Package youtube reads playlist membership from the YouTube Data API and
// enriches it with authoritative duration and channel metadata.
package youtube

import (
	"context"
	"errors"
)

// ServiceName identifies YouTube in classified errors and logs.
const ServiceName = "YouTube"

// Operations reported by classified errors.
const (
	OpFetchPlaylist  = "fetching playlist videos"
	OpFetchDurations = "fetching video durations"
)

// DurationUnavailable marks a video the metadata lookup did not return.
const DurationUnavailable = "N/A"

// ErrInvalidPlaylistID is returned for an empty playlist identifier.
var ErrInvalidPlaylistID = errors.New("youtube: empty playlist id")

// Video is one playlist entry flowing through the sync pipeline.
type Video struct {
	// ID is the YouTube video ID (e.g., "dQw4w9WgXcQ").
	ID string `json:"id"`
	// Title is the video title as listed in the playlist.
	Title string `json:"title"`
	// Channel is the channel display name. Enrichment replaces it with the video owner.
	Channel string `json:"channel"`
	// ChannelID is the channel ID, empty until known.
	ChannelID string `json:"channel_id,omitempty"`
	// PublishedAt is the RFC3339 timestamp reported by the playlist, carried unchanged.
	PublishedAt string `json:"published_at,omitempty"`
	// Description is carried unchanged.
	Description string `json:"description,omitempty"`
	// Duration is the formatted length, or DurationUnavailable.
	Duration string `json:"duration"`
}

// VideoURL returns the watch URL used in the title hyperlink.
func (v Video) VideoURL() string {
	return "https://youtube.com/watch?v=" + v.ID
}

// ChannelURL returns the channel URL used in the channel hyperlink.
func (v Video) ChannelURL() string {
	return "https://www.youtube.com/channel/" + v.ChannelID
}

// PlaylistPage is one page of playlist membership.
type PlaylistPage struct {
	Items []Video
	// NextPageToken is empty on the last page.
	NextPageToken string
}

// VideoMetadata is the authoritative record returned by the batched lookup.
type VideoMetadata struct {
	ID string
	// Duration is the raw ISO-8601 value (e.g., "PT4M13S").
	Duration     string
	ChannelTitle string
	ChannelID    string
}

// Source is the remote side of the pipeline. APISource is the production implementation.
type Source interface {
	// ListPlaylistItems fetches one page of playlist membership. An empty
	// pageToken requests the first page.
	ListPlaylistItems(ctx context.Context, playlistID, pageToken string, pageSize int64) (*PlaylistPage, error)

	// ListVideoMetadata looks up at most MaxIDsPerLookup videos in one call.
	// Unknown IDs are silently absent from the result.
	ListVideoMetadata(ctx context.Context, ids []string) ([]VideoMetadata, error)
}
