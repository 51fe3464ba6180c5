package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestAPIWriter(t *testing.T, handler http.HandlerFunc) *APIWriter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	w, err := NewAPIWriter(context.Background(), nil,
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return w
}

func respond(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestAPIWriterUpdateRange(t *testing.T) {
	var gotBody map[string]any
	writer := newTestAPIWriter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/SS1/values/"), r.URL.Path)
		assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		respond(t, w, map[string]any{"updatedCells": 6, "updatedRows": 2})
	})

	rows := [][]interface{}{{"a", "b", "c"}, {"d", "e", "f"}}
	cells, err := writer.UpdateRange(context.Background(), "SS1", "'YouTube Videos'!A2:C", ModeFormula, rows)
	require.NoError(t, err)

	assert.Equal(t, int64(6), cells)
	assert.Equal(t, []any{[]any{"a", "b", "c"}, []any{"d", "e", "f"}}, gotBody["values"])
}

func TestAPIWriterApplyBorders(t *testing.T) {
	var req struct {
		Requests []struct {
			UpdateBorders struct {
				Range map[string]any `json:"range"`
				Top   map[string]any `json:"top"`
			} `json:"updateBorders"`
		} `json:"requests"`
	}
	var raw map[string]any
	writer := newTestAPIWriter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v4/spreadsheets/SS1:batchUpdate"), r.URL.Path)
		var body json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NoError(t, json.Unmarshal(body, &req))
		require.NoError(t, json.Unmarshal(body, &raw))
		respond(t, w, map[string]any{"spreadsheetId": "SS1"})
	})

	grid := GridRange{SheetID: 0, StartRow: 0, EndRow: 3, StartColumn: 0, EndColumn: 3}
	require.NoError(t, writer.ApplyBorders(context.Background(), "SS1", grid, DefaultBorder))

	require.Len(t, req.Requests, 1)
	ub := req.Requests[0].UpdateBorders
	assert.Equal(t, map[string]any{
		"sheetId":          float64(0),
		"startRowIndex":    float64(0),
		"endRowIndex":      float64(3),
		"startColumnIndex": float64(0),
		"endColumnIndex":   float64(3),
	}, ub.Range)
	assert.Equal(t, "SOLID", ub.Top["style"])
	assert.Equal(t, float64(1), ub.Top["width"])
	assert.Equal(t, map[string]any{"red": float64(0), "green": float64(0), "blue": float64(0)}, ub.Top["color"])

	borders := raw["requests"].([]any)[0].(map[string]any)["updateBorders"].(map[string]any)
	for _, edge := range []string{"top", "bottom", "left", "right", "innerHorizontal", "innerVertical"} {
		assert.Contains(t, borders, edge)
	}
}

func TestAPIWriterSheetIDExisting(t *testing.T) {
	calls := 0
	writer := newTestAPIWriter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v4/spreadsheets/SS1", r.URL.Path)
		assert.Equal(t, "sheets.properties", r.URL.Query().Get("fields"))
		respond(t, w, map[string]any{"sheets": []any{
			map[string]any{"properties": map[string]any{"sheetId": 0, "title": "Sheet1"}},
			map[string]any{"properties": map[string]any{"sheetId": 917, "title": "YouTube Videos"}},
		}})
	})

	id, err := writer.SheetID(context.Background(), "SS1", "YouTube Videos")
	require.NoError(t, err)
	assert.Equal(t, int64(917), id)
	assert.Equal(t, 1, calls)
}

func TestAPIWriterSheetIDCreatesMissing(t *testing.T) {
	var added string
	writer := newTestAPIWriter(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			respond(t, w, map[string]any{"sheets": []any{
				map[string]any{"properties": map[string]any{"sheetId": 0, "title": "Sheet1"}},
			}})
		case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
			var body struct {
				Requests []struct {
					AddSheet struct {
						Properties struct {
							Title string `json:"title"`
						} `json:"properties"`
					} `json:"addSheet"`
				} `json:"requests"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Requests, 1)
			added = body.Requests[0].AddSheet.Properties.Title
			respond(t, w, map[string]any{"replies": []any{
				map[string]any{"addSheet": map[string]any{"properties": map[string]any{"sheetId": 55, "title": added}}},
			}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	id, err := writer.SheetID(context.Background(), "SS1", "YouTube Videos")
	require.NoError(t, err)
	assert.Equal(t, int64(55), id)
	assert.Equal(t, "YouTube Videos", added)
}

func TestAPIWriterSheetIDMissingWithoutCreate(t *testing.T) {
	writer := newTestAPIWriter(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, map[string]any{"sheets": []any{}})
	})
	writer.CreateMissing = false

	_, err := writer.SheetID(context.Background(), "SS1", "Nope")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}
