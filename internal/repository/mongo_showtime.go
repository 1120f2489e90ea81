package repository

import (
	"context"
	"errors"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	showtimesCollection = "showtimes"
	roomLocksCollection = "showtime_room_locks"
)

type MongoShowtimeRepository struct {
	client    *mongo.Client
	showtimes *mongo.Collection
	roomLocks *mongo.Collection
}

func NewMongoShowtimeRepository(client *mongo.Client, database string) *MongoShowtimeRepository {
	db := client.Database(database)

	return &MongoShowtimeRepository{
		client:    client,
		showtimes: db.Collection(showtimesCollection),
		roomLocks: db.Collection(roomLocksCollection),
	}
}

type showtimeDocument struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Movie        movieSnapshot        `bson:"movie"`
	Theater      theaterSnapshot      `bson:"theater"`
	Room         roomSnapshot         `bson:"room"`
	StartTime    time.Time            `bson:"startTime"`
	EndTime      time.Time            `bson:"endTime"`
	Date         time.Time            `bson:"date"`
	PriceRegular primitive.Decimal128 `bson:"priceRegular"`
	PriceVIP     primitive.Decimal128 `bson:"priceVIP"`
	ShowtimeType string               `bson:"showtimeType"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

type movieSnapshot struct {
	MovieID  string `bson:"movieId"`
	Title    string `bson:"title"`
	Duration int    `bson:"duration"`
}

type theaterSnapshot struct {
	TheaterID   int    `bson:"theaterId"`
	TheaterName string `bson:"theaterName"`
}

type roomSnapshot struct {
	RoomID   int    `bson:"roomId"`
	RoomName string `bson:"roomName"`
}

func toShowtimeDocument(s domain.Showtime) (showtimeDocument, error) {
	regular, err := primitive.ParseDecimal128(s.PriceRegular.String())
	if err != nil {
		return showtimeDocument{}, err
	}

	vip, err := primitive.ParseDecimal128(s.PriceVIP.String())
	if err != nil {
		return showtimeDocument{}, err
	}

	doc := showtimeDocument{
		Movie:        movieSnapshot{MovieID: s.MovieID, Title: s.MovieTitle, Duration: s.MovieDuration},
		Theater:      theaterSnapshot{TheaterID: s.TheaterID, TheaterName: s.TheaterName},
		Room:         roomSnapshot{RoomID: s.RoomID, RoomName: s.RoomName},
		StartTime:    s.StartTime.UTC(),
		EndTime:      s.EndTime.UTC(),
		Date:         s.Date.UTC(),
		PriceRegular: regular,
		PriceVIP:     vip,
		ShowtimeType: s.ShowtimeType,
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}

	if s.ID != "" {
		doc.ID, err = primitive.ObjectIDFromHex(s.ID)
		if err != nil {
			return showtimeDocument{}, err
		}
	}

	return doc, nil
}

func (d showtimeDocument) toDomain() domain.Showtime {
	regular, _ := decimal.NewFromString(d.PriceRegular.String())
	vip, _ := decimal.NewFromString(d.PriceVIP.String())

	return domain.Showtime{
		ID:            d.ID.Hex(),
		MovieID:       d.Movie.MovieID,
		MovieTitle:    d.Movie.Title,
		MovieDuration: d.Movie.Duration,
		TheaterID:     d.Theater.TheaterID,
		TheaterName:   d.Theater.TheaterName,
		RoomID:        d.Room.RoomID,
		RoomName:      d.Room.RoomName,
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		Date:          d.Date,
		PriceRegular:  regular,
		PriceVIP:      vip,
		ShowtimeType:  d.ShowtimeType,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// EnsureIndexes creates the indexes backing the overlap and listing queries.
func (m *MongoShowtimeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.showtimes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "room.roomId", Value: 1}, {Key: "startTime", Value: 1}}},
		{Keys: bson.D{{Key: "theater.theaterId", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "movie.movieId", Value: 1}, {Key: "startTime", Value: 1}}},
	})

	return err
}

// RunInTx runs fn inside a multi-document transaction. fn may be invoked more than once when the
// transaction is retried after a transient error, so it must not keep state between calls.
func (m *MongoShowtimeRepository) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})

	return err
}

// LockRooms bumps a version document per room. Two transactions scheduling into the same room
// then write-conflict and one of them is retried against the other's committed showtimes.
func (m *MongoShowtimeRepository) LockRooms(ctx context.Context, roomIDs []int) error {
	for _, roomID := range roomIDs {
		_, err := m.roomLocks.UpdateOne(
			ctx,
			bson.M{"_id": roomID},
			bson.M{"$inc": bson.M{"version": 1}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *MongoShowtimeRepository) FindOverlapping(
	ctx context.Context,
	roomID int,
	start, end time.Time) ([]domain.Showtime, error) {

	filter := bson.M{
		"room.roomId": roomID,
		"startTime":   bson.M{"$lt": end.UTC()},
		"endTime":     bson.M{"$gt": start.UTC()},
	}

	return m.find(ctx, filter)
}

func (m *MongoShowtimeRepository) ExistsAt(
	ctx context.Context,
	movieID, showtimeType string,
	theaterID int,
	start time.Time) (bool, error) {

	filter := bson.M{
		"movie.movieId":     movieID,
		"showtimeType":      showtimeType,
		"theater.theaterId": theaterID,
		"startTime":         start.UTC(),
	}

	count, err := m.showtimes.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (m *MongoShowtimeRepository) InsertMany(
	ctx context.Context,
	showtimes []domain.Showtime) ([]domain.Showtime, error) {

	if len(showtimes) == 0 {
		return []domain.Showtime{}, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(showtimes))
	created := make([]domain.Showtime, len(showtimes))

	for i, s := range showtimes {
		s.CreatedAt = now
		s.UpdatedAt = now

		doc, err := toShowtimeDocument(s)
		if err != nil {
			return nil, err
		}

		doc.ID = primitive.NewObjectID()
		docs[i] = doc
		created[i] = doc.toDomain()
	}

	_, err := m.showtimes.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (m *MongoShowtimeRepository) GetByID(ctx context.Context, id string) (*domain.Showtime, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}

	var doc showtimeDocument

	err = m.showtimes.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	showtime := doc.toDomain()

	return &showtime, nil
}

func (m *MongoShowtimeRepository) List(ctx context.Context, filter domain.ShowtimeFilter) ([]domain.Showtime, error) {
	query := bson.M{}

	if filter.TheaterID != nil {
		query["theater.theaterId"] = *filter.TheaterID
	}
	if filter.RoomID != nil {
		query["room.roomId"] = *filter.RoomID
	}
	if filter.MovieID != nil {
		query["movie.movieId"] = *filter.MovieID
	}
	if filter.Date != nil {
		query["date"] = filter.Date.UTC()
	}

	return m.find(ctx, query)
}

func (m *MongoShowtimeRepository) find(ctx context.Context, filter bson.M) ([]domain.Showtime, error) {
	cursor, err := m.showtimes.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []showtimeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	showtimes := make([]domain.Showtime, len(docs))
	for i, doc := range docs {
		showtimes[i] = doc.toDomain()
	}

	return showtimes, nil
}

func (m *MongoShowtimeRepository) UpdatePrices(
	ctx context.Context,
	update domain.ShowtimePriceUpdate) (int64, error) {

	ids := make([]primitive.ObjectID, 0, len(update.IDs))
	for _, id := range update.IDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, domain.NewValidationError("invalid showtime id %q", id)
		}
		ids = append(ids, oid)
	}

	set := bson.M{"updatedAt": time.Now().UTC()}

	if update.PriceRegular != nil {
		price, err := primitive.ParseDecimal128(update.PriceRegular.String())
		if err != nil {
			return 0, err
		}
		set["priceRegular"] = price
	}
	if update.PriceVIP != nil {
		price, err := primitive.ParseDecimal128(update.PriceVIP.String())
		if err != nil {
			return 0, err
		}
		set["priceVIP"] = price
	}

	result, err := m.showtimes.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}

	return result.MatchedCount, nil
}

func (m *MongoShowtimeRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRecordNotFound
	}

	result, err := m.showtimes.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
