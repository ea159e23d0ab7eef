package vectorstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ragdesk/models"
)

type mongoChunk struct {
	ID         string            `bson:"_id"`
	Source     string            `bson:"source"`
	ChunkIndex int               `bson:"chunkIndex"`
	Content    string            `bson:"content"`
	Meta       map[string]string `bson:"meta,omitempty"`
	Embedding  []float32         `bson:"embedding"`
	Score      float64           `bson:"score,omitempty"`
}

// MongoStore searches an Atlas collection through a $vectorSearch index. The
// index must be defined on the "embedding" path with cosine similarity.
type MongoStore struct {
	collection *mongo.Collection
	index      string
	embedder   Embedder
}

func NewMongoStore(collection *mongo.Collection, index string, embedder Embedder) *MongoStore {
	return &MongoStore{collection: collection, index: index, embedder: embedder}
}

func (s *MongoStore) SimilaritySearchWithDistance(ctx context.Context, query string, k int) ([]models.RetrievalCandidate, error) {
	if k <= 0 {
		return []models.RetrievalCandidate{}, nil
	}
	count, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if count == 0 {
		return []models.RetrievalCandidate{}, nil
	}

	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.index},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: qv},
			{Key: "numCandidates", Value: k * 10},
			{Key: "limit", Value: k},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "embedding", Value: 0},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	var docs []mongoChunk
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	out := make([]models.RetrievalCandidate, 0, len(docs))
	for _, d := range docs {
		c := models.DocumentChunk{Content: d.Content, Source: d.Source, Index: d.ChunkIndex, Meta: d.Meta}
		out = append(out, candidate(c, scoreToDistance(d.Score)))
	}
	return out, nil
}

// scoreToDistance maps Atlas' normalized cosine score (1+cos)/2 back to 1-cos.
func scoreToDistance(score float64) float64 {
	return 2 - 2*score
}

func (s *MongoStore) Upsert(ctx context.Context, chunks []models.DocumentChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	vectors, err := embedChunks(ctx, s.embedder, chunks)
	if err != nil {
		return 0, err
	}

	writes := make([]mongo.WriteModel, len(chunks))
	for i, c := range chunks {
		doc := mongoChunk{
			ID:         chunkID(c),
			Source:     c.Source,
			ChunkIndex: c.Index,
			Content:    c.Content,
			Meta:       c.Meta,
			Embedding:  vectors[i],
		}
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true)
	}
	if _, err := s.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return 0, fmt.Errorf("bulk upsert: %w", err)
	}
	return len(chunks), nil
}

func (s *MongoStore) DeleteAll(ctx context.Context) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (s *MongoStore) Stats(ctx context.Context) (models.IndexStats, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return models.IndexStats{}, fmt.Errorf("count chunks: %w", err)
	}
	return models.IndexStats{VectorCount: int(count), Dimension: s.embedder.Dimension()}, nil
}

// Close is a no-op; the client is owned by the database package.
func (s *MongoStore) Close() error { return nil }
