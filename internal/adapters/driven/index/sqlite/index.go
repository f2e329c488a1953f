// Package sqlite provides a persistent vector index.
//
// Vectors and metadata are stored in a SQLite database; search runs
// against an in-memory index restored from that database at startup.
// Writes commit to SQLite first, then apply to the in-memory index, so a
// crash can lose at most the writes that were never acknowledged.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/retriva/internal/adapters/driven/index/memory"
	sqlitemigrations "github.com/custodia-labs/retriva/internal/adapters/driven/index/sqlite/migrations"
	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
)

// Meta keys stored in index_meta.
const (
	metaDimensions = "dimensions"
	metaMetric     = "metric"
	metaModelTag   = "model_tag"
	metaVersion    = "version"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Config holds configuration for the persistent index.
type Config struct {
	// Dimensions is the fixed vector dimensionality (required).
	Dimensions int

	// Metric is the similarity metric (default: cosine).
	Metric domain.SimilarityMetric

	// ModelTag is the embedding model the index is built for. A stored
	// index created for a different model is rejected at open.
	ModelTag string
}

// Index is a SQLite-backed vector index.
type Index struct {
	mu  sync.Mutex // serialises writers across db and mem
	db  *sql.DB
	mem *memory.Index
}

// Open opens or creates a persistent index at the specified data
// directory. If dataDir is empty, defaults to ~/.retriva/data.
func Open(dataDir string, cfg Config) (*Index, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".retriva", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	if err := migrate(db, sqlitemigrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running index migrations: %w", err)
	}

	mem, err := restore(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Index{db: db, mem: mem}, nil
}

// migrate runs all pending migrations.
func migrate(db *sql.DB, fsys embed.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// restore loads stored meta and entries and builds the in-memory index.
// A fresh database is stamped with the caller's config; an existing one
// must match it.
func restore(db *sql.DB, cfg Config) (*memory.Index, error) {
	if cfg.Metric == "" {
		cfg.Metric = domain.MetricCosine
	}

	meta, err := loadMeta(db)
	if err != nil {
		return nil, err
	}

	if len(meta) == 0 {
		// Fresh index: stamp it with this configuration.
		if err := stampMeta(db, cfg); err != nil {
			return nil, err
		}
		return memory.New(memory.Config{
			Dimensions: cfg.Dimensions,
			Metric:     cfg.Metric,
			ModelTag:   cfg.ModelTag,
		})
	}

	storedDims, _ := strconv.Atoi(meta[metaDimensions])
	if storedDims != cfg.Dimensions || meta[metaModelTag] != cfg.ModelTag {
		return nil, fmt.Errorf(
			"%w: stored index is for model %q (%d dims), configured model is %q (%d dims)",
			domain.ErrIndexModelMismatch,
			meta[metaModelTag], storedDims, cfg.ModelTag, cfg.Dimensions,
		)
	}
	if metric := domain.SimilarityMetric(meta[metaMetric]); metric != cfg.Metric {
		return nil, fmt.Errorf(
			"%w: stored index uses metric %q, configured metric is %q",
			domain.ErrIndexModelMismatch, metric, cfg.Metric,
		)
	}

	version, err := strconv.ParseUint(meta[metaVersion], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing stored index version: %w", err)
	}

	entries, err := loadEntries(db)
	if err != nil {
		return nil, err
	}

	return memory.NewFromEntries(memory.Config{
		Dimensions: cfg.Dimensions,
		Metric:     cfg.Metric,
		ModelTag:   cfg.ModelTag,
	}, entries, domain.IndexVersion(version))
}

func loadMeta(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query("SELECT key, value FROM index_meta")
	if err != nil {
		return nil, fmt.Errorf("querying index meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning index meta: %w", err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index meta: %w", err)
	}
	return meta, nil
}

func stampMeta(db *sql.DB, cfg Config) error {
	pairs := map[string]string{
		metaDimensions: strconv.Itoa(cfg.Dimensions),
		metaMetric:     string(cfg.Metric),
		metaModelTag:   cfg.ModelTag,
		metaVersion:    "0",
	}
	for key, value := range pairs {
		if _, err := db.Exec(
			"INSERT INTO index_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value,
		); err != nil {
			return fmt.Errorf("writing index meta: %w", err)
		}
	}
	return nil
}

func loadEntries(db *sql.DB) ([]domain.IndexEntry, error) {
	rows, err := db.Query("SELECT chunk_id, document_id, source_uri, position, vector FROM index_entries")
	if err != nil {
		return nil, fmt.Errorf("querying index entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.IndexEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entry domain.IndexEntry
		var blob []byte
		if err := rows.Scan(&entry.ChunkID, &entry.Meta.DocumentID,
			&entry.Meta.SourceURI, &entry.Meta.Position, &blob); err != nil {
			return nil, fmt.Errorf("scanning index entry: %w", err)
		}
		entry.Vector = bytesToFloat32Slice(blob)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index entries: %w", err)
	}
	return entries, nil
}

// Insert atomically commits a batch of entries. The batch is written to
// SQLite first; a storage failure surfaces as IndexCommitError and
// leaves the in-memory index untouched.
func (idx *Index) Insert(ctx context.Context, entries []domain.IndexEntry) (domain.IndexVersion, error) {
	// Validate against the in-memory index before writing anything.
	for _, e := range entries {
		if len(e.Vector) != idx.mem.Dimensions() {
			return 0, &domain.DimensionMismatchError{Want: idx.mem.Dimensions(), Got: len(e.Vector)}
		}
		if e.ChunkID == "" {
			return 0, fmt.Errorf("insert: %w: entry has empty chunk ID", domain.ErrInvalidInput)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur, err := idx.mem.Version(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		// Nothing to persist or bump, same as the in-memory index.
		return cur, nil
	}

	if err := idx.persistInsert(ctx, entries, cur+1); err != nil {
		return 0, &domain.IndexCommitError{Err: err}
	}

	return idx.mem.Insert(ctx, entries)
}

func (idx *Index) persistInsert(ctx context.Context, entries []domain.IndexEntry, next domain.IndexVersion) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries (chunk_id, document_id, source_uri, position, vector)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			source_uri = excluded.source_uri,
			position = excluded.position,
			vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ChunkID, e.Meta.DocumentID,
			e.Meta.SourceURI, e.Meta.Position, float32SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("writing entry %s: %w", e.ChunkID, err)
		}
	}

	if err := setVersion(ctx, tx, next); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes entries for the given chunk IDs. Absent IDs are
// ignored; the version only advances when something was removed.
func (idx *Index) Delete(ctx context.Context, chunkIDs []string) (domain.IndexVersion, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur, err := idx.mem.Version(ctx)
	if err != nil {
		return 0, err
	}

	removed, err := idx.persistDelete(ctx, chunkIDs, cur+1)
	if err != nil {
		return 0, &domain.IndexCommitError{Err: err}
	}
	if removed == 0 {
		return cur, nil
	}

	return idx.mem.Delete(ctx, chunkIDs)
}

func (idx *Index) persistDelete(ctx context.Context, chunkIDs []string, next domain.IndexVersion) (int64, error) {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var removed int64
	for _, id := range chunkIDs {
		res, err := tx.ExecContext(ctx, "DELETE FROM index_entries WHERE chunk_id = ?", id)
		if err != nil {
			return 0, fmt.Errorf("deleting entry %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("counting deleted rows: %w", err)
		}
		removed += n
	}

	if removed == 0 {
		// Nothing changed; leave the stored version alone.
		return 0, tx.Rollback()
	}

	if err := setVersion(ctx, tx, next); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return removed, nil
}

func setVersion(ctx context.Context, tx *sql.Tx, version domain.IndexVersion) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO index_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		metaVersion, strconv.FormatUint(uint64(version), 10),
	)
	if err != nil {
		return fmt.Errorf("writing index version: %w", err)
	}
	return nil
}

// Search delegates to the in-memory index.
func (idx *Index) Search(
	ctx context.Context, query []float32, k int, filters domain.SearchFilters,
) ([]driven.VectorHit, domain.IndexVersion, error) {
	return idx.mem.Search(ctx, query, k, filters)
}

// Version returns the current index version.
func (idx *Index) Version(ctx context.Context) (domain.IndexVersion, error) {
	return idx.mem.Version(ctx)
}

// Count returns the number of entries in the index.
func (idx *Index) Count(ctx context.Context) (int, error) {
	return idx.mem.Count(ctx)
}

// Dimensions returns the index's fixed vector dimensionality.
func (idx *Index) Dimensions() int {
	return idx.mem.Dimensions()
}

// Metric returns the similarity metric.
func (idx *Index) Metric() domain.SimilarityMetric {
	return idx.mem.Metric()
}

// ModelTag returns the embedding model tag.
func (idx *Index) ModelTag() string {
	return idx.mem.ModelTag()
}

// Close closes the in-memory index and the database.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.mem.Close(); err != nil {
		idx.db.Close()
		return err
	}
	return idx.db.Close()
}

func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	bytes := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(bytes[i*4:], math.Float32bits(f))
	}
	return bytes
}

func bytesToFloat32Slice(bytes []byte) []float32 {
	if len(bytes) == 0 || len(bytes)%4 != 0 {
		return nil
	}
	floats := make([]float32, len(bytes)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(bytes[i*4:]))
	}
	return floats
}
