package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/manyidi1774/LegalBuddy/internal/model"
)

const (
	chatsCollection = "chats"
	usersCollection = "users"
)

type chatRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Title     string             `bson:"title,omitempty"`
	Messages  []messageRecord    `bson:"messages"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type messageRecord struct {
	Content   string    `bson:"content"`
	Timestamp time.Time `bson:"timestamp"`
	IsUser    bool      `bson:"isUser"`
}

type userRecord struct {
	UserID      string            `bson:"userId"`
	Preferences preferencesRecord `bson:"preferences"`
}

type preferencesRecord struct {
	Theme    string `bson:"theme"`
	Language string `bson:"language"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// MongoStore persists chats in MongoDB, one document per conversation with
// the messages embedded in order.
type MongoStore struct {
	client *mongo.Client
	chats  *mongo.Collection
	users  *mongo.Collection
	now    func() time.Time
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures the
// lookup indexes exist.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &MongoStore{
		client: client,
		chats:  db.Collection(chatsCollection),
		users:  db.Collection(usersCollection),
		now:    time.Now,
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create chats index: %w", err)
	}

	_, err = s.chats.Indexes().CreateOne(ctx, seedIndex())
	if err != nil {
		return fmt.Errorf("failed to create chats seed index: %w", err)
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	return nil
}

// primarySort orders an owner's documents oldest first.
var primarySort = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

// seedIndex allows at most one implicitly created document per owner, so
// concurrent first messages converge on a single primary conversation.
func seedIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().
			SetName("userId_seed_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"seed": true}),
	}
}

func (s *MongoStore) FindOrCreate(ctx context.Context, ownerID string) (*model.ChatDocument, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var rec chatRecord
		err := s.chats.FindOne(ctx, bson.M{"userId": ownerID}, options.FindOne().SetSort(primarySort)).Decode(&rec)
		if err == nil {
			return rec.toModel(), nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find or create chat: %w", err)
		}

		now := s.now()
		update := bson.M{"$setOnInsert": bson.M{
			"messages":  bson.A{},
			"createdAt": now,
			"updatedAt": now,
		}}
		opts := options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After)

		err = s.chats.FindOneAndUpdate(ctx, seedFilter(ownerID), update, opts).Decode(&rec)
		if mongo.IsDuplicateKeyError(err) {
			// Another request inserted the seed document first.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find or create chat: %w", err)
		}
		return rec.toModel(), nil
	}
	return nil, fmt.Errorf("find or create chat: lost insert race for %q", ownerID)
}

func seedFilter(ownerID string) bson.M {
	return bson.M{"userId": ownerID, "seed": true}
}

func (s *MongoStore) CreateDocument(ctx context.Context, ownerID, title string) (*model.ChatDocument, error) {
	now := s.now()
	rec := chatRecord{
		ID:        primitive.NewObjectID(),
		UserID:    ownerID,
		Title:     title,
		Messages:  []messageRecord{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.chats.InsertOne(ctx, rec); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return rec.toModel(), nil
}

// AppendMessage pushes msg with a pipeline update so the timestamp clamp
// against the previous message happens atomically on the server.
func (s *MongoStore) AppendMessage(ctx context.Context, ownerID string, msg model.Message) error {
	// The primary document can be deleted between the lookup and the update;
	// a second lookup recreates it.
	for attempt := 0; attempt < 2; attempt++ {
		doc, err := s.FindOrCreate(ctx, ownerID)
		if err != nil {
			return err
		}
		oid, err := primitive.ObjectIDFromHex(doc.ID)
		if err != nil {
			return fmt.Errorf("append message: %w", err)
		}

		res, err := s.chats.UpdateOne(ctx, bson.M{"_id": oid}, appendPipeline(msg, s.now()))
		if err != nil {
			return fmt.Errorf("append message: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}
	}
	return fmt.Errorf("append message: chat for %q disappeared during update", ownerID)
}

func appendPipeline(msg model.Message, now time.Time) mongo.Pipeline {
	entry := bson.D{
		{Key: "content", Value: bson.D{{Key: "$literal", Value: msg.Content}}},
		{Key: "timestamp", Value: bson.D{{Key: "$max", Value: bson.A{
			msg.Timestamp,
			bson.D{{Key: "$last", Value: "$messages.timestamp"}},
		}}}},
		{Key: "isUser", Value: msg.IsUser},
	}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "messages", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$messages", bson.A{}}}},
				bson.A{entry},
			}}}},
			{Key: "updatedAt", Value: now},
		}}},
	}
}

func (s *MongoStore) GetHistory(ctx context.Context, ownerID string) ([]model.Message, error) {
	opts := options.FindOne().SetSort(primarySort)

	var rec chatRecord
	err := s.chats.FindOne(ctx, bson.M{"userId": ownerID}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return rec.toModel().Messages, nil
}

func (s *MongoStore) ListDocuments(ctx context.Context, ownerID string) ([]model.ChatDocument, error) {
	cursor, err := s.chats.Find(ctx, bson.M{"userId": ownerID}, options.Find().SetSort(primarySort))
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []chatRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	docs := make([]model.ChatDocument, 0, len(recs))
	for i := range recs {
		docs = append(docs, *recs[i].toModel())
	}
	return docs, nil
}

func (s *MongoStore) RenameDocument(ctx context.Context, ownerID, docID, title string) (*model.ChatDocument, error) {
	oid, err := primitive.ObjectIDFromHex(docID)
	if err != nil {
		return nil, ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec chatRecord
	err = s.chats.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": ownerID},
		bson.M{"$set": bson.M{"title": title}},
		opts,
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rename chat: %w", err)
	}
	return rec.toModel(), nil
}

func (s *MongoStore) DeleteDocument(ctx context.Context, ownerID, docID string) error {
	oid, err := primitive.ObjectIDFromHex(docID)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.chats.DeleteOne(ctx, bson.M{"_id": oid, "userId": ownerID})
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.chats.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("clear chats: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) UpsertPreferences(ctx context.Context, prefs model.Preferences) error {
	rec := userRecord{
		UserID: prefs.OwnerID,
		Preferences: preferencesRecord{
			Theme:    string(prefs.Theme),
			Language: prefs.Language,
		},
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.users.ReplaceOne(ctx, bson.M{"userId": prefs.OwnerID}, rec, opts); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *MongoStore) GetPreferences(ctx context.Context, ownerID string) (*model.Preferences, error) {
	var rec userRecord
	err := s.users.FindOne(ctx, bson.M{"userId": ownerID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &model.Preferences{
		OwnerID:  rec.UserID,
		Theme:    model.Theme(rec.Preferences.Theme),
		Language: rec.Preferences.Language,
	}, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (r *chatRecord) toModel() *model.ChatDocument {
	msgs := make([]model.Message, len(r.Messages))
	for i, m := range r.Messages {
		msgs[i] = model.Message{Content: m.Content, IsUser: m.IsUser, Timestamp: m.Timestamp}
	}
	return &model.ChatDocument{
		ID:        r.ID.Hex(),
		OwnerID:   r.UserID,
		Title:     r.Title,
		Messages:  msgs,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

var _ Store = (*MongoStore)(nil)
