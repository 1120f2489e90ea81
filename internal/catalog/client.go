// Package catalog looks up movies and theater rooms in the services that own them.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultTimeout = 3 * time.Second

type Client struct {
	http       *http.Client
	movieURL   string
	theaterURL string
	logger     *slog.Logger
}

// NewClient builds a client for the movie and theater services. Base URLs are the service
// roots, e.g. http://movie-service:5001.
func NewClient(movieURL, theaterURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		movieURL:   strings.TrimRight(movieURL, "/"),
		theaterURL: strings.TrimRight(theaterURL, "/"),
		logger:     logger,
	}
}

type movieResponse struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

type roomResponse struct {
	ID          int    `json:"id"`
	RoomName    string `json:"room_name"`
	RoomType    string `json:"room_type"`
	TheaterName string `json:"name"`
}

// FetchMovieByID returns nil when the movie service does not answer in time, or answers without
// a title or a positive duration.
func (c *Client) FetchMovieByID(ctx context.Context, id string) *domain.MovieSummary {
	var movie movieResponse

	err := c.getJSON(ctx, c.movieURL+"/api/movies/"+url.PathEscape(id), &movie)
	if err != nil {
		c.logger.Warn("movie lookup failed", "movie_id", id, "error", err)
		return nil
	}

	if movie.Title == "" || movie.Duration <= 0 {
		c.logger.Warn("movie lookup returned no usable movie", "movie_id", id, "title", movie.Title, "duration", movie.Duration)
		return nil
	}

	if movie.ID == "" {
		movie.ID = id
	}

	return &domain.MovieSummary{
		ID:       movie.ID,
		Title:    movie.Title,
		Duration: movie.Duration,
	}
}

// FetchRoomsByTheater returns an empty slice when the theater service does not answer in time.
func (c *Client) FetchRoomsByTheater(ctx context.Context, theaterID int) []domain.Room {
	var rooms []roomResponse

	err := c.getJSON(ctx, c.theaterURL+"/api/rooms/theater/"+strconv.Itoa(theaterID), &rooms)
	if err != nil {
		c.logger.Warn("room lookup failed", "theater_id", theaterID, "error", err)
		return []domain.Room{}
	}

	result := make([]domain.Room, len(rooms))
	for i, r := range rooms {
		result[i] = domain.Room{
			ID:          r.ID,
			TheaterName: r.TheaterName,
			RoomName:    r.RoomName,
			RoomType:    r.RoomType,
		}
	}

	return result
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	err = json.NewDecoder(resp.Body).Decode(dst)
	if err != nil {
		return fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}

	return nil
}
