package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/riseandserve-go/models"
)

const EventsCollection = "events"

type MongoEventStore struct {
	col *mongo.Collection
}

func NewMongoEventStore(db *mongo.Database) *MongoEventStore {
	return &MongoEventStore{col: db.Collection(EventsCollection)}
}

// EnsureIndexes creates the secondary indexes the query paths rely on.
func (s *MongoEventStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "eventDate", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "creator.email", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "participants.email", Value: 1}}},
	})
	return wrap("ensure event indexes", err)
}

func (s *MongoEventStore) Insert(ctx context.Context, event *models.Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	// $push fails on a null field.
	if event.Participants == nil {
		event.Participants = []models.Snapshot{}
	}
	_, err := s.col.InsertOne(ctx, event)
	return wrap("insert event", err)
}

func (s *MongoEventStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var event models.Event
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("find event", err)
	}
	return &event, nil
}

func (s *MongoEventStore) Find(ctx context.Context, filter EventFilter, order SortOrder) ([]models.Event, error) {
	sort := bson.D{{Key: "eventDate", Value: 1}, {Key: "_id", Value: 1}}
	if order == SortByCreatedAt {
		sort = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	}

	cursor, err := s.col.Find(ctx, eventQuery(filter), options.Find().SetSort(sort))
	if err != nil {
		return nil, wrap("find events", err)
	}

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, wrap("decode events", err)
	}
	return events, nil
}

func eventQuery(filter EventFilter) bson.M {
	query := bson.M{}
	if filter.Keyword != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Keyword), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	if filter.Type != "" {
		query["eventType"] = filter.Type
	}
	if filter.CreatorEmail != "" {
		query["creator.email"] = models.NormalizeEmail(filter.CreatorEmail)
	}
	if filter.ParticipantEmail != "" {
		query["participants.email"] = models.NormalizeEmail(filter.ParticipantEmail)
	}
	if !filter.After.IsZero() {
		query["eventDate"] = bson.M{"$gt": filter.After}
	}
	return query
}

func (s *MongoEventStore) UpdateDetails(ctx context.Context, id primitive.ObjectID, details models.EventDetails, updatedAt time.Time) (*models.Event, error) {
	update := bson.M{"$set": bson.M{
		"title":       details.Title,
		"description": details.Description,
		"eventType":   details.EventType,
		"thumbnail":   details.Thumbnail,
		"location":    details.Location,
		"eventDate":   details.EventDate,
		"updatedAt":   updatedAt,
	}}

	var updated models.Event
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("update event", err)
	}
	return &updated, nil
}

// AppendParticipant pushes the snapshot only if the email is neither the
// creator's nor already on the roster. The guard and the push are one
// document update, so concurrent joins cannot duplicate or drop entries.
func (s *MongoEventStore) AppendParticipant(ctx context.Context, id primitive.ObjectID, participant models.Snapshot, updatedAt time.Time) (*models.Event, error) {
	email := models.NormalizeEmail(participant.Email)
	participant.Email = email

	filter := bson.M{
		"_id":                id,
		"creator.email":      bson.M{"$ne": email},
		"participants.email": bson.M{"$ne": email},
	}
	update := bson.M{
		"$push": bson.M{"participants": participant},
		"$set":  bson.M{"updatedAt": updatedAt},
	}

	var updated models.Event
	err := s.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotAppended
	}
	if err != nil {
		return nil, wrap("append participant", err)
	}
	return &updated, nil
}

func (s *MongoEventStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("delete event", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
