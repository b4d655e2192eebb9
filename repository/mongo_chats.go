package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/riseandserve-go/models"
)

const ChatsCollection = "event_chats"

type MongoChatStore struct {
	col *mongo.Collection
}

func NewMongoChatStore(db *mongo.Database) *MongoChatStore {
	return &MongoChatStore{col: db.Collection(ChatsCollection)}
}

func (s *MongoChatStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}},
	})
	return wrap("ensure chat indexes", err)
}

func (s *MongoChatStore) Insert(ctx context.Context, msg *models.ChatMessage) error {
	_, err := s.col.InsertOne(ctx, msg)
	return wrap("insert chat message", err)
}

func (s *MongoChatStore) ListByEvent(ctx context.Context, eventID string) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.col.Find(ctx, bson.M{"eventId": eventID}, opts)
	if err != nil {
		return nil, wrap("find chat messages", err)
	}

	msgs := []models.ChatMessage{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, wrap("decode chat messages", err)
	}
	return msgs, nil
}

func (s *MongoChatStore) FindByID(ctx context.Context, eventID, id string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := s.col.FindOne(ctx, bson.M{"_id": id, "eventId": eventID}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("find chat message", err)
	}
	return &msg, nil
}

func (s *MongoChatStore) Delete(ctx context.Context, eventID, id string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id, "eventId": eventID})
	if err != nil {
		return wrap("delete chat message", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoChatStore) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"eventId": eventID})
	if err != nil {
		return 0, wrap("purge chat messages", err)
	}
	return res.DeletedCount, nil
}
