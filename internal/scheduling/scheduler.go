// Package scheduling places showtimes into theater rooms without overlaps, either one at a time
// or as an all-or-nothing recurring schedule over a date range.
package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	maxGenerationDays = 31
	dateLayout        = "2006-01-02"
)

type Scheduler struct {
	showtimes domain.ShowtimeRepository
	movies    domain.MovieLookup
	rooms     domain.RoomLookup
	loc       *time.Location
	logger    *slog.Logger
}

func NewScheduler(
	showtimes domain.ShowtimeRepository,
	movies domain.MovieLookup,
	rooms domain.RoomLookup,
	loc *time.Location,
	logger *slog.Logger) *Scheduler {

	return &Scheduler{
		showtimes: showtimes,
		movies:    movies,
		rooms:     rooms,
		loc:       loc,
		logger:    logger,
	}
}

type CreateInput struct {
	TheaterID    int
	RoomID       int
	MovieID      string
	Date         time.Time
	StartTime    string
	PriceRegular decimal.Decimal
	PriceVIP     decimal.Decimal
	ShowtimeType string
}

type GenerateInput struct {
	TheaterID           int
	MovieID             string
	StartDate           time.Time
	EndDate             time.Time
	Times               []string
	ShowtimeType        string
	PriceRegular        decimal.Decimal
	PriceVIP            decimal.Decimal
	WeekendPriceRegular *decimal.Decimal
	WeekendPriceVIP     *decimal.Decimal
}

// Create schedules a single showtime in the requested room.
func (s *Scheduler) Create(ctx context.Context, input CreateInput) (*domain.Showtime, error) {
	switch {
	case input.TheaterID < 1:
		return nil, domain.NewValidationError("theaterId is required")
	case input.RoomID < 1:
		return nil, domain.NewValidationError("roomId is required")
	case input.MovieID == "":
		return nil, domain.NewValidationError("movieId is required")
	case input.ShowtimeType == "":
		return nil, domain.NewValidationError("showtimeType is required")
	}

	err := validatePrices(input.PriceRegular, input.PriceVIP)
	if err != nil {
		return nil, err
	}

	clock, err := ParseClock(input.StartTime)
	if err != nil {
		return nil, err
	}

	movie, rooms, err := s.lookup(ctx, input.MovieID, input.TheaterID)
	if err != nil {
		return nil, err
	}

	room, ok := findRoom(rooms, input.RoomID)
	if !ok {
		return nil, domain.NewValidationError("room %d does not belong to theater %d", input.RoomID, input.TheaterID)
	}

	day := DayIn(input.Date, s.loc)
	start := clock.At(day, s.loc)
	showtime := newShowtime(movie, input.TheaterID, room, day, start, ComputeEndTime(start, movie.Duration, s.loc))
	showtime.PriceRegular = input.PriceRegular
	showtime.PriceVIP = input.PriceVIP
	showtime.ShowtimeType = input.ShowtimeType

	var created []domain.Showtime

	err = s.showtimes.RunInTx(ctx, func(ctx context.Context) error {
		err := s.showtimes.LockRooms(ctx, []int{room.ID})
		if err != nil {
			return err
		}

		overlapping, err := s.showtimes.FindOverlapping(ctx, room.ID, showtime.StartTime, showtime.EndTime)
		if err != nil {
			return err
		}

		if len(overlapping) > 0 {
			existing := overlapping[0]
			return &domain.ScheduleConflictError{
				Date: day.Format(dateLayout),
				Slot: clock.String(),
				Room: room.RoomName,
				Reason: fmt.Errorf("%w: showtime %s runs %s-%s", domain.ErrShowtimeConflict, existing.ID,
					existing.StartTime.In(s.loc).Format("15:04"), existing.EndTime.In(s.loc).Format("15:04")),
			}
		}

		created, err = s.showtimes.InsertMany(ctx, []domain.Showtime{showtime})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("showtime scheduled",
		"showtime_id", created[0].ID, "room_id", room.ID, "start", created[0].StartTime, "end", created[0].EndTime)

	return &created[0], nil
}

// Generate schedules the movie at every requested time on every day of the range. Each slot goes
// to the first listed room of the requested format that is free. If any slot cannot be placed
// nothing is stored.
func (s *Scheduler) Generate(ctx context.Context, input GenerateInput) ([]domain.Showtime, error) {
	clocks, format, err := s.validateGenerate(input)
	if err != nil {
		return nil, err
	}

	movie, rooms, err := s.lookup(ctx, input.MovieID, input.TheaterID)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Supports(format) {
			candidates = append(candidates, room)
		}
	}

	if len(candidates) == 0 {
		return nil, domain.NewValidationError("theater %d has no %s rooms", input.TheaterID, format)
	}

	roomIDs := make([]int, len(candidates))
	for i, room := range candidates {
		roomIDs[i] = room.ID
	}

	first := DayIn(input.StartDate, s.loc)
	last := DayIn(input.EndDate, s.loc)

	var created []domain.Showtime

	err = s.showtimes.RunInTx(ctx, func(ctx context.Context) error {
		// The transaction may be retried, so the plan is rebuilt on every attempt.
		planned := make([]domain.Showtime, 0)

		err := s.showtimes.LockRooms(ctx, roomIDs)
		if err != nil {
			return err
		}

		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			regular, vip := s.pricesFor(day, input)

			for _, clock := range clocks {
				start := clock.At(day, s.loc)
				end := ComputeEndTime(start, movie.Duration, s.loc)

				conflict := &domain.ScheduleConflictError{Date: day.Format(dateLayout), Slot: clock.String()}

				duplicate, err := s.isDuplicate(ctx, planned, input, start)
				if err != nil {
					return err
				}

				if duplicate {
					conflict.Reason = domain.ErrDuplicateShowtime
					return conflict
				}

				room, ok, err := s.firstFreeRoom(ctx, candidates, planned, start, end)
				if err != nil {
					return err
				}

				if !ok {
					conflict.Reason = domain.ErrNoRoomAvailable
					return conflict
				}

				showtime := newShowtime(movie, input.TheaterID, room, day, start, end)
				showtime.PriceRegular = regular
				showtime.PriceVIP = vip
				showtime.ShowtimeType = input.ShowtimeType

				planned = append(planned, showtime)
			}
		}

		created, err = s.showtimes.InsertMany(ctx, planned)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("showtimes generated",
		"movie_id", input.MovieID, "theater_id", input.TheaterID, "count", len(created),
		"from", first.Format(dateLayout), "to", last.Format(dateLayout))

	return created, nil
}

func (s *Scheduler) validateGenerate(input GenerateInput) ([]Clock, string, error) {
	switch {
	case input.TheaterID < 1:
		return nil, "", domain.NewValidationError("theaterId is required")
	case input.MovieID == "":
		return nil, "", domain.NewValidationError("movieId is required")
	case len(input.Times) == 0:
		return nil, "", domain.NewValidationError("at least one showtime slot is required")
	}

	format := FormatOf(input.ShowtimeType)
	if format == "" {
		return nil, "", domain.NewValidationError("showtimeType %q names no known format (2D, 3D, IMAX)", input.ShowtimeType)
	}

	first := DayIn(input.StartDate, s.loc)
	last := DayIn(input.EndDate, s.loc)

	if last.Before(first) {
		return nil, "", domain.NewValidationError("endDate must not be before startDate")
	}

	if last.Sub(first) >= maxGenerationDays*24*time.Hour {
		return nil, "", domain.NewValidationError("date range must not exceed %d days", maxGenerationDays)
	}

	err := validatePrices(input.PriceRegular, input.PriceVIP)
	if err != nil {
		return nil, "", err
	}

	for _, p := range []*decimal.Decimal{input.WeekendPriceRegular, input.WeekendPriceVIP} {
		if p != nil && p.IsNegative() {
			return nil, "", domain.NewValidationError("weekend prices must not be negative")
		}
	}

	clocks := make([]Clock, 0, len(input.Times))
	seen := make(map[Clock]bool, len(input.Times))

	for _, value := range input.Times {
		clock, err := ParseClock(value)
		if err != nil {
			return nil, "", err
		}

		if seen[clock] {
			return nil, "", domain.NewValidationError("time %s is listed more than once", clock)
		}

		seen[clock] = true
		clocks = append(clocks, clock)
	}

	return clocks, format, nil
}

// lookup fetches the movie and the theater's rooms concurrently.
func (s *Scheduler) lookup(ctx context.Context, movieID string, theaterID int) (*domain.MovieSummary, []domain.Room, error) {
	var (
		movie *domain.MovieSummary
		rooms []domain.Room
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		movie = s.movies.FetchMovieByID(gctx, movieID)
		return nil
	})

	g.Go(func() error {
		rooms = s.rooms.FetchRoomsByTheater(gctx, theaterID)
		return nil
	})

	_ = g.Wait()

	if movie == nil {
		return nil, nil, fmt.Errorf("%w: movie %s", domain.ErrDependencyUnavailable, movieID)
	}

	if len(rooms) == 0 {
		return nil, nil, fmt.Errorf("%w: rooms of theater %d", domain.ErrDependencyUnavailable, theaterID)
	}

	return movie, rooms, nil
}

func (s *Scheduler) isDuplicate(
	ctx context.Context,
	planned []domain.Showtime,
	input GenerateInput,
	start time.Time) (bool, error) {

	for _, p := range planned {
		if p.StartTime.Equal(start) {
			return true, nil
		}
	}

	return s.showtimes.ExistsAt(ctx, input.MovieID, input.ShowtimeType, input.TheaterID, start)
}

func (s *Scheduler) firstFreeRoom(
	ctx context.Context,
	rooms []domain.Room,
	planned []domain.Showtime,
	start, end time.Time) (domain.Room, bool, error) {

next:
	for _, room := range rooms {
		for _, p := range planned {
			if p.RoomID == room.ID && p.Overlaps(start, end) {
				continue next
			}
		}

		overlapping, err := s.showtimes.FindOverlapping(ctx, room.ID, start, end)
		if err != nil {
			return domain.Room{}, false, err
		}

		if len(overlapping) == 0 {
			return room, true, nil
		}
	}

	return domain.Room{}, false, nil
}

func (s *Scheduler) pricesFor(day time.Time, input GenerateInput) (decimal.Decimal, decimal.Decimal) {
	regular, vip := input.PriceRegular, input.PriceVIP

	if IsWeekend(day, s.loc) {
		if input.WeekendPriceRegular != nil {
			regular = *input.WeekendPriceRegular
		}
		if input.WeekendPriceVIP != nil {
			vip = *input.WeekendPriceVIP
		}
	}

	return regular, vip
}

func (s *Scheduler) List(ctx context.Context, filter domain.ShowtimeFilter) ([]domain.Showtime, error) {
	if filter.Date != nil {
		day := DayIn(*filter.Date, s.loc)
		filter.Date = &day
	}

	return s.showtimes.List(ctx, filter)
}

func (s *Scheduler) Get(ctx context.Context, id string) (*domain.Showtime, error) {
	return s.showtimes.GetByID(ctx, id)
}

// UpdatePrices changes the prices of the given showtimes. It returns the number of showtimes matched.
func (s *Scheduler) UpdatePrices(ctx context.Context, update domain.ShowtimePriceUpdate) (int64, error) {
	if len(update.IDs) == 0 {
		return 0, domain.NewValidationError("at least one showtime id is required")
	}

	if update.PriceRegular == nil && update.PriceVIP == nil {
		return 0, domain.NewValidationError("priceRegular or priceVIP is required")
	}

	for _, p := range []*decimal.Decimal{update.PriceRegular, update.PriceVIP} {
		if p != nil && p.IsNegative() {
			return 0, domain.NewValidationError("prices must not be negative")
		}
	}

	matched, err := s.showtimes.UpdatePrices(ctx, update)
	if err != nil {
		return 0, err
	}

	if matched == 0 {
		return 0, domain.ErrRecordNotFound
	}

	return matched, nil
}

func (s *Scheduler) Delete(ctx context.Context, id string) error {
	return s.showtimes.Delete(ctx, id)
}

func validatePrices(regular, vip decimal.Decimal) error {
	if regular.IsNegative() || vip.IsNegative() {
		return domain.NewValidationError("prices must not be negative")
	}

	return nil
}

func findRoom(rooms []domain.Room, id int) (domain.Room, bool) {
	for _, room := range rooms {
		if room.ID == id {
			return room, true
		}
	}

	return domain.Room{}, false
}

func newShowtime(
	movie *domain.MovieSummary,
	theaterID int,
	room domain.Room,
	day, start, end time.Time) domain.Showtime {

	return domain.Showtime{
		MovieID:       movie.ID,
		MovieTitle:    movie.Title,
		MovieDuration: movie.Duration,
		TheaterID:     theaterID,
		TheaterName:   room.TheaterName,
		RoomID:        room.ID,
		RoomName:      room.RoomName,
		StartTime:     start,
		EndTime:       end,
		Date:          day,
	}
}
