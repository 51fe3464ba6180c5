package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"ytsheets/internal/apierror"
)

// fakeSource serves playlist pages keyed by page token and metadata by ID.
type fakeSource struct {
	mu sync.Mutex

	pages    map[string]*PlaylistPage
	metadata map[string]VideoMetadata

	pageErr   error
	lookupErr error

	pageCalls []string
	pageSizes []int64
	lookupIDs [][]string
}

func (f *fakeSource) ListPlaylistItems(ctx context.Context, playlistID, pageToken string, pageSize int64) (*PlaylistPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls = append(f.pageCalls, pageToken)
	f.pageSizes = append(f.pageSizes, pageSize)
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	page, ok := f.pages[pageToken]
	if !ok {
		return &PlaylistPage{}, nil
	}
	return page, nil
}

func (f *fakeSource) ListVideoMetadata(ctx context.Context, ids []string) ([]VideoMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupIDs = append(f.lookupIDs, append([]string(nil), ids...))
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var out []VideoMetadata
	for _, id := range ids {
		if md, ok := f.metadata[id]; ok {
			out = append(out, md)
		}
	}
	return out, nil
}

func TestPlaylistVideosEnrichesInOrder(t *testing.T) {
	src := &fakeSource{
		pages: map[string]*PlaylistPage{
			"": {
				Items: []Video{
					{ID: "v1", Title: "Title A", Channel: "Playlist Owner"},
					{ID: "v2", Title: "Title B", Channel: "Playlist Owner"},
				},
				NextPageToken: "p2",
			},
			"p2": {
				Items: []Video{{ID: "v3", Title: "Gone", Channel: "Playlist Owner", ChannelID: "UCowner"}},
			},
		},
		metadata: map[string]VideoMetadata{
			"v1": {ID: "v1", Duration: "PT1H", ChannelTitle: "Chan A", ChannelID: "UCa"},
			"v2": {ID: "v2", Duration: "PT5M", ChannelTitle: "Chan B", ChannelID: "UCb"},
		},
	}

	videos, err := NewPlaylist(src, nil).Videos(context.Background(), "PL1", 50)
	if err != nil {
		t.Fatalf("Videos() error = %v", err)
	}

	want := []Video{
		{ID: "v1", Title: "Title A", Channel: "Chan A", ChannelID: "UCa", Duration: "1h"},
		{ID: "v2", Title: "Title B", Channel: "Chan B", ChannelID: "UCb", Duration: "5m"},
		{ID: "v3", Title: "Gone", Channel: "Playlist Owner", ChannelID: "UCowner", Duration: "N/A"},
	}
	if len(videos) != len(want) {
		t.Fatalf("Videos() returned %d videos, want %d", len(videos), len(want))
	}
	for i := range want {
		if videos[i] != want[i] {
			t.Errorf("videos[%d] = %+v, want %+v", i, videos[i], want[i])
		}
	}

	if got := strings.Join(src.pageCalls, ","); got != ",p2" {
		t.Errorf("page tokens requested = %q, want %q", got, ",p2")
	}
}

func TestPlaylistVideosChunksLookups(t *testing.T) {
	const n = 120
	var items []Video
	metadata := make(map[string]VideoMetadata)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("v%03d", i)
		items = append(items, Video{ID: id, Title: id})
		metadata[id] = VideoMetadata{ID: id, Duration: "PT30S", ChannelTitle: "c", ChannelID: "UCc"}
	}
	src := &fakeSource{
		pages:    map[string]*PlaylistPage{"": {Items: items}},
		metadata: metadata,
	}

	videos, err := NewPlaylist(src, nil).Videos(context.Background(), "PL1", 50)
	if err != nil {
		t.Fatalf("Videos() error = %v", err)
	}

	if len(src.lookupIDs) != 3 {
		t.Fatalf("made %d lookups, want 3", len(src.lookupIDs))
	}
	total := 0
	for _, ids := range src.lookupIDs {
		if len(ids) > MaxIDsPerLookup {
			t.Errorf("lookup with %d ids exceeds %d", len(ids), MaxIDsPerLookup)
		}
		total += len(ids)
	}
	if total != n {
		t.Errorf("looked up %d ids, want %d", total, n)
	}
	for i, v := range videos {
		if v.ID != items[i].ID {
			t.Fatalf("videos[%d].ID = %s, want %s", i, v.ID, items[i].ID)
		}
		if v.Duration != "30s" {
			t.Errorf("videos[%d].Duration = %q, want 30s", i, v.Duration)
		}
	}
}

func TestPlaylistVideosPageSize(t *testing.T) {
	tests := []struct {
		requested int
		want      int64
	}{
		{10, 10},
		{50, 50},
		{500, 50},
		{0, 50},
		{-3, 50},
	}
	for _, tt := range tests {
		src := &fakeSource{}
		if _, err := NewPlaylist(src, nil).Videos(context.Background(), "PL1", tt.requested); err != nil {
			t.Fatalf("Videos() error = %v", err)
		}
		if src.pageSizes[0] != tt.want {
			t.Errorf("page size for %d = %d, want %d", tt.requested, src.pageSizes[0], tt.want)
		}
	}
}

func TestPlaylistVideosEmpty(t *testing.T) {
	src := &fakeSource{}

	videos, err := NewPlaylist(src, nil).Videos(context.Background(), "PL1", 50)
	if err != nil {
		t.Fatalf("Videos() error = %v", err)
	}
	if len(videos) != 0 {
		t.Errorf("Videos() returned %d videos, want 0", len(videos))
	}
	if len(src.lookupIDs) != 0 {
		t.Errorf("empty playlist triggered %d metadata lookups", len(src.lookupIDs))
	}
}

func TestPlaylistVideosMembershipFailure(t *testing.T) {
	src := &fakeSource{pageErr: errors.New("googleapi: Error 401: Request had invalid authentication credentials")}

	_, err := NewPlaylist(src, nil).Videos(context.Background(), "PL1", 50)

	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Videos() error = %v, want *apierror.Error", err)
	}
	if apiErr.Service != ServiceName || apiErr.Operation != OpFetchPlaylist {
		t.Errorf("classified as %s/%s", apiErr.Service, apiErr.Operation)
	}
	if !apiErr.AuthError {
		t.Error("401 failure should be classified as auth error")
	}
}

func TestPlaylistVideosEnrichmentFailure(t *testing.T) {
	src := &fakeSource{
		pages:     map[string]*PlaylistPage{"": {Items: []Video{{ID: "v1"}}}},
		lookupErr: errors.New("backendError"),
	}

	_, err := NewPlaylist(src, nil).Videos(context.Background(), "PL1", 50)

	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Videos() error = %v, want *apierror.Error", err)
	}
	if apiErr.Operation != OpFetchDurations {
		t.Errorf("Operation = %q, want %q", apiErr.Operation, OpFetchDurations)
	}
	if apiErr.AuthError {
		t.Error("transient failure classified as auth error")
	}
	if got := err.Error(); got != "YouTube error while fetching video durations: backendError" {
		t.Errorf("Error() = %q", got)
	}
}

func TestPlaylistVideosMalformedDuration(t *testing.T) {
	src := &fakeSource{
		pages:    map[string]*PlaylistPage{"": {Items: []Video{{ID: "v1"}}}},
		metadata: map[string]VideoMetadata{"v1": {ID: "v1", Duration: "4:13"}},
	}

	_, err := NewPlaylist(src, nil).Videos(context.Background(), "PL1", 50)

	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("Videos() error = %v, want ErrInvalidDuration", err)
	}
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) || apiErr.Operation != OpFetchDurations {
		t.Errorf("malformed duration not classified under %q: %v", OpFetchDurations, err)
	}
}

func TestPlaylistVideosRepeatedPageToken(t *testing.T) {
	src := &fakeSource{
		pages: map[string]*PlaylistPage{
			"":   {Items: []Video{{ID: "v1"}}, NextPageToken: "p2"},
			"p2": {Items: []Video{{ID: "v2"}}, NextPageToken: "p2"},
		},
	}

	if _, err := NewPlaylist(src, nil).Videos(context.Background(), "PL1", 50); err == nil {
		t.Fatal("Videos() returned nil error for a looping page token")
	}
}

func TestPlaylistVideosEmptyID(t *testing.T) {
	_, err := NewPlaylist(&fakeSource{}, nil).Videos(context.Background(), "", 50)
	if !errors.Is(err, ErrInvalidPlaylistID) {
		t.Errorf("Videos() error = %v, want ErrInvalidPlaylistID", err)
	}
}
