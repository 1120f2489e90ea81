package domain

import "context"

type MovieSummary struct {
	ID       string
	Title    string
	Duration int
}

// MovieLookup resolves a movie from the movie service. A nil result means the movie could not
// be confirmed, whether it is absent or the service failed.
type MovieLookup interface {
	FetchMovieByID(ctx context.Context, id string) *MovieSummary
}
