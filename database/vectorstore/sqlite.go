package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"ragdesk/models"
)

// SQLiteStore persists vectors in a local SQLite file and searches them by
// brute-force cosine distance.
type SQLiteStore struct {
	db       *sql.DB
	embedder Embedder
}

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath string, embedder Embedder) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, embedder: embedder}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id          TEXT PRIMARY KEY,
		seq         INTEGER NOT NULL,
		source      TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content     TEXT NOT NULL,
		meta        TEXT,
		dimension   INTEGER NOT NULL,
		embedding   BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_seq ON chunks(seq);
	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) SimilaritySearchWithDistance(ctx context.Context, query string, k int) ([]models.RetrievalCandidate, error) {
	if k <= 0 {
		return []models.RetrievalCandidate{}, nil
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if count == 0 {
		return []models.RetrievalCandidate{}, nil
	}

	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT source, chunk_index, content, meta, embedding FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	scored := make([]scoredChunk, 0, count)
	for rows.Next() {
		var (
			c    models.DocumentChunk
			meta sql.NullString
			blob []byte
		)
		if err := rows.Scan(&c.Source, &c.Index, &c.Content, &meta, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &c.Meta); err != nil {
				return nil, fmt.Errorf("decode meta: %w", err)
			}
		}
		scored = append(scored, scoredChunk{chunk: c, distance: cosineDistance(qv, decodeVector(blob))})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topK(scored, k), nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, chunks []models.DocumentChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	vectors, err := embedChunks(ctx, s.embedder, chunks)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM chunks`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, seq, source, chunk_index, content, meta, dimension, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			meta = excluded.meta,
			dimension = excluded.dimension,
			embedding = excluded.embedding`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		var meta sql.NullString
		if len(c.Meta) > 0 {
			b, err := json.Marshal(c.Meta)
			if err != nil {
				return 0, fmt.Errorf("encode meta: %w", err)
			}
			meta = sql.NullString{String: string(b), Valid: true}
		}
		seq++
		if _, err := stmt.ExecContext(ctx, chunkID(c), seq, c.Source, c.Index, c.Content, meta, len(vectors[i]), encodeVector(vectors[i])); err != nil {
			return 0, fmt.Errorf("upsert chunk %d: %w", c.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(chunks), nil
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (models.IndexStats, error) {
	var st models.IndexStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&st.VectorCount); err != nil {
		return st, fmt.Errorf("count chunks: %w", err)
	}
	st.Dimension = s.embedder.Dimension()
	return st, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
