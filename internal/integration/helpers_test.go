package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

const (
	testMovieID   = "665f1c2e8a1b2c3d4e5f6a7b"
	testTheaterID = 1
	testRoomID    = 10
	testUserID    = 42
)

type upstreamMovie struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

type upstreamRoom struct {
	ID          int    `json:"id"`
	RoomName    string `json:"room_name"`
	RoomType    string `json:"room_type"`
	TheaterName string `json:"name"`
}

var testMovies = map[string]upstreamMovie{
	testMovieID: {ID: testMovieID, Title: "Dune: Part Two", Duration: 166},
}

var testRooms = map[int][]upstreamRoom{
	testTheaterID: {
		{ID: testRoomID, RoomName: "Room 1", RoomType: "2D", TheaterName: "Cinema One"},
		{ID: 11, RoomName: "Room 2", RoomType: "2D", TheaterName: "Cinema One"},
		{ID: 12, RoomName: "Room IMAX", RoomType: "IMAX", TheaterName: "Cinema One"},
	},
}

var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
	"createdAt": {},
	"updatedAt": {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func compareResponse(t testing.TB, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k, v := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}

		switch nested := v.(type) {
		case map[string]any:
			cleanMap(nested)
		case []any:
			for _, item := range nested {
				if obj, ok := item.(map[string]any); ok {
					cleanMap(obj)
				}
			}
		}
	}
}

func jsonBody(t testing.TB, v any) io.Reader {
	if s, ok := v.(string); ok {
		return strings.NewReader(s)
	}

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(data)
}

func adminHeaders() map[string]string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		panic(err)
	}

	return map[string]string{"Authorization": "Bearer " + signed}
}

// withAdmin returns headers plus an admin bearer token.
func withAdmin(headers map[string]string) map[string]string {
	merged := adminHeaders()
	for k, v := range headers {
		merged[k] = v
	}

	return merged
}

// do sends a request straight to the router and decodes a successful JSON response into dst.
func do(t testing.TB, testApp *TestApp, method, path string, body any, headers map[string]string, dst any) int {
	var reader io.Reader
	if body != nil {
		reader = jsonBody(t, body)
	}

	req, err := prepareRequest(method, path, reader, headers)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	testApp.App.Routes().ServeHTTP(rec, req)

	if dst != nil && rec.Code < 300 {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
	}

	return rec.Code
}
