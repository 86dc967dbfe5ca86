package forum

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"businessconnect_backend/internal/models"
)

const (
	topicsCollection  = "forum_topics"
	repliesCollection = "forum_replies"
)

// Connect opens a client and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

type MongoRepository struct {
	db *mongo.Database
}

func NewMongoRepository(client *mongo.Client, dbName string) *MongoRepository {
	return &MongoRepository{db: client.Database(dbName)}
}

// EnsureIndexes creates the indexes used by listings.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(topicsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create topic indexes: %w", err)
	}
	_, err = r.db.Collection(repliesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "topic_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create reply indexes: %w", err)
	}
	return nil
}

type topicDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Title      string             `bson:"title"`
	Content    string             `bson:"content"`
	Category   string             `bson:"category"`
	Tags       []string           `bson:"tags"`
	AuthorID   string             `bson:"author_id"`
	AuthorName string             `bson:"author_name"`
	Views      int64              `bson:"views"`
	Likes      []string           `bson:"likes"`
	ReplyCount int64              `bson:"reply_count"`
	CreatedAt  primitive.DateTime `bson:"created_at"`
	UpdatedAt  primitive.DateTime `bson:"updated_at"`
}

type replyDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	TopicID    string             `bson:"topic_id"`
	AuthorID   string             `bson:"author_id"`
	AuthorName string             `bson:"author_name"`
	Content    string             `bson:"content"`
	CreatedAt  primitive.DateTime `bson:"created_at"`
	UpdatedAt  primitive.DateTime `bson:"updated_at"`
}

func toTopic(doc *topicDocument) models.Topic {
	likes := doc.Likes
	if likes == nil {
		likes = []string{}
	}
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Topic{
		ID:         doc.ID.Hex(),
		Title:      doc.Title,
		Content:    doc.Content,
		Category:   doc.Category,
		Tags:       tags,
		AuthorID:   doc.AuthorID,
		AuthorName: doc.AuthorName,
		Views:      doc.Views,
		Likes:      likes,
		ReplyCount: doc.ReplyCount,
		CreatedAt:  doc.CreatedAt.Time().UTC(),
		UpdatedAt:  doc.UpdatedAt.Time().UTC(),
	}
}

func toReply(doc *replyDocument) models.Reply {
	return models.Reply{
		ID:         doc.ID.Hex(),
		TopicID:    doc.TopicID,
		AuthorID:   doc.AuthorID,
		AuthorName: doc.AuthorName,
		Content:    doc.Content,
		CreatedAt:  doc.CreatedAt.Time().UTC(),
		UpdatedAt:  doc.UpdatedAt.Time().UTC(),
	}
}

func (r *MongoRepository) topics() *mongo.Collection  { return r.db.Collection(topicsCollection) }
func (r *MongoRepository) replies() *mongo.Collection { return r.db.Collection(repliesCollection) }

func (r *MongoRepository) CreateTopic(ctx context.Context, topic *models.Topic) error {
	now := time.Now().UTC()
	doc := topicDocument{
		Title:      topic.Title,
		Content:    topic.Content,
		Category:   topic.Category,
		Tags:       topic.Tags,
		AuthorID:   topic.AuthorID,
		AuthorName: topic.AuthorName,
		Likes:      []string{},
		CreatedAt:  primitive.NewDateTimeFromTime(now),
		UpdatedAt:  primitive.NewDateTimeFromTime(now),
	}

	res, err := r.topics().InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create topic in mongo: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	doc.ID = id
	*topic = toTopic(&doc)
	return nil
}

func (r *MongoRepository) FindTopic(ctx context.Context, id string) (*models.Topic, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrTopicNotFound
	}

	var doc topicDocument
	if err := r.topics().FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to get topic from mongo: %w", err)
	}
	t := toTopic(&doc)
	return &t, nil
}

func (r *MongoRepository) UpdateTopic(ctx context.Context, topic *models.Topic) error {
	objID, err := primitive.ObjectIDFromHex(topic.ID)
	if err != nil {
		return ErrTopicNotFound
	}
	topic.UpdatedAt = time.Now().UTC()

	res, err := r.topics().UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{
		"title":      topic.Title,
		"content":    topic.Content,
		"category":   topic.Category,
		"tags":       topic.Tags,
		"updated_at": primitive.NewDateTimeFromTime(topic.UpdatedAt),
	}})
	if err != nil {
		return fmt.Errorf("failed to update topic in mongo: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrTopicNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteTopic(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrTopicNotFound
	}

	res, err := r.topics().DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete topic from mongo: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrTopicNotFound
	}
	if _, err := r.replies().DeleteMany(ctx, bson.M{"topic_id": id}); err != nil {
		return fmt.Errorf("failed to delete topic replies: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListTopics(ctx context.Context, filter TopicFilter) ([]models.Topic, int64, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"content": pattern},
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * filter.PageSize)).
		SetLimit(int64(filter.PageSize))

	cursor, err := r.topics().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list topics from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []topicDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode topics from mongo: %w", err)
	}

	total, err := r.topics().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count topics in mongo: %w", err)
	}

	out := make([]models.Topic, len(docs))
	for i := range docs {
		out[i] = toTopic(&docs[i])
	}
	return out, total, nil
}

func (r *MongoRepository) IncrementViews(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrTopicNotFound
	}
	_, err = r.topics().UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{"views": 1}})
	return err
}

func (r *MongoRepository) ToggleLike(ctx context.Context, topicID, userID string) (bool, int, error) {
	objID, err := primitive.ObjectIDFromHex(topicID)
	if err != nil {
		return false, 0, ErrTopicNotFound
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	// unlike first: only matches when the user already liked the topic
	var doc topicDocument
	err = r.topics().FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}},
		after,
	).Decode(&doc)
	if err == nil {
		return false, len(doc.Likes), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, 0, fmt.Errorf("failed to unlike topic: %w", err)
	}

	err = r.topics().FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$addToSet": bson.M{"likes": userID}},
		after,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, 0, ErrTopicNotFound
		}
		return false, 0, fmt.Errorf("failed to like topic: %w", err)
	}
	return true, len(doc.Likes), nil
}

func (r *MongoRepository) CreateReply(ctx context.Context, reply *models.Reply) error {
	topicObjID, err := primitive.ObjectIDFromHex(reply.TopicID)
	if err != nil {
		return ErrTopicNotFound
	}

	now := time.Now().UTC()
	doc := replyDocument{
		TopicID:    reply.TopicID,
		AuthorID:   reply.AuthorID,
		AuthorName: reply.AuthorName,
		Content:    reply.Content,
		CreatedAt:  primitive.NewDateTimeFromTime(now),
		UpdatedAt:  primitive.NewDateTimeFromTime(now),
	}

	res, err := r.topics().UpdateOne(ctx, bson.M{"_id": topicObjID}, bson.M{
		"$inc": bson.M{"reply_count": 1},
		"$set": bson.M{"updated_at": doc.UpdatedAt},
	})
	if err != nil {
		return fmt.Errorf("failed to update topic reply count: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrTopicNotFound
	}

	ins, err := r.replies().InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create reply in mongo: %w", err)
	}
	if id, ok := ins.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}
	*reply = toReply(&doc)
	return nil
}

func (r *MongoRepository) FindReply(ctx context.Context, id string) (*models.Reply, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReplyNotFound
	}

	var doc replyDocument
	if err := r.replies().FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReplyNotFound
		}
		return nil, fmt.Errorf("failed to get reply from mongo: %w", err)
	}
	reply := toReply(&doc)
	return &reply, nil
}

func (r *MongoRepository) DeleteReply(ctx context.Context, id string) error {
	reply, err := r.FindReply(ctx, id)
	if err != nil {
		return err
	}
	objID, _ := primitive.ObjectIDFromHex(id)
	if _, err := r.replies().DeleteOne(ctx, bson.M{"_id": objID}); err != nil {
		return fmt.Errorf("failed to delete reply from mongo: %w", err)
	}

	if topicObjID, err := primitive.ObjectIDFromHex(reply.TopicID); err == nil {
		_, err = r.topics().UpdateOne(ctx,
			bson.M{"_id": topicObjID, "reply_count": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"reply_count": -1}},
		)
		if err != nil {
			return fmt.Errorf("failed to update topic reply count: %w", err)
		}
	}
	return nil
}

func (r *MongoRepository) ListReplies(ctx context.Context, topicID string) ([]models.Reply, error) {
	cursor, err := r.replies().Find(ctx,
		bson.M{"topic_id": topicID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []replyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode replies from mongo: %w", err)
	}
	out := make([]models.Reply, len(docs))
	for i := range docs {
		out[i] = toReply(&docs[i])
	}
	return out, nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}
