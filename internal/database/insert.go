package database

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jchantrell/epack/internal/pack"
)

// InsertProgressCallback is called after each committed batch
type InsertProgressCallback func(current int, total int, description string)

// BulkInserter mirrors package catalogs into the catalog index
type BulkInserter struct {
	db        *Database
	batchSize int
}

// BulkInsertOptions configures bulk insertion behavior
type BulkInsertOptions struct {
	// BatchSize determines how many rows to insert per transaction
	BatchSize int
}

// DefaultBulkInsertOptions returns sensible defaults for bulk insertion
func DefaultBulkInsertOptions() *BulkInsertOptions {
	return &BulkInsertOptions{
		BatchSize: 1000,
	}
}

// NewBulkInserter creates a new bulk inserter with the given database and options
func NewBulkInserter(db *Database, options *BulkInsertOptions) *BulkInserter {
	if options == nil {
		options = DefaultBulkInsertOptions()
	}
	batchSize := options.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBulkInsertOptions().BatchSize
	}

	return &BulkInserter{
		db:        db,
		batchSize: batchSize,
	}
}

// PackageInfo is the package-level metadata stored alongside the catalog
type PackageInfo struct {
	Base        string
	FileVersion uint32
	Assets      int
}

var insertAssetSQL = fmt.Sprintf(
	"INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	quoteSQLIdentifier(AssetsTable),
	strings.Join([]string{
		quoteSQLIdentifier("name"),
		quoteSQLIdentifier("position"),
		quoteSQLIdentifier("version"),
		quoteSQLIdentifier("size"),
		quoteSQLIdentifier("org_size"),
		quoteSQLIdentifier("offset"),
		quoteSQLIdentifier("crc"),
		quoteSQLIdentifier("modified"),
	}, ", "))

// InsertCatalog replaces the index content with entries, which must be in
// name list order. Metadata and the old rows are replaced in the first
// transaction; the remaining rows follow in batches.
func (bi *BulkInserter) InsertCatalog(ctx context.Context, info PackageInfo, entries []pack.HeaderEntry, progressCallback InsertProgressCallback) error {
	if err := bi.resetCatalog(ctx, info); err != nil {
		return err
	}

	if len(entries) == 0 {
		slog.Debug("No assets to index", "package", info.Base)
		return nil
	}

	for i := 0; i < len(entries); i += bi.batchSize {
		end := min(i+bi.batchSize, len(entries))

		if err := bi.insertBatch(ctx, i, entries[i:end]); err != nil {
			return fmt.Errorf("inserting batch %d-%d: %w", i, end-1, err)
		}

		if progressCallback != nil {
			progressCallback(end, len(entries), entries[end-1].Name)
		}
	}

	slog.Debug("Indexed catalog", "package", info.Base, "assets", len(entries))
	return nil
}

// resetCatalog clears the assets table and rewrites the package metadata
func (bi *BulkInserter) resetCatalog(ctx context.Context, info PackageInfo) error {
	tx, err := bi.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Safe to call even after commit

	for _, table := range []string{AssetsTable, PackageTable} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteSQLIdentifier(table)); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	metadata := map[string]string{
		"base":         info.Base,
		"file_version": strconv.FormatUint(uint64(info.FileVersion), 10),
		"assets":       strconv.Itoa(info.Assets),
		"indexed_at":   time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range metadata {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+quoteSQLIdentifier(PackageTable)+" (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("inserting metadata %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertBatch inserts a single batch of rows within a transaction
func (bi *BulkInserter) insertBatch(ctx context.Context, position int, batch []pack.HeaderEntry) error {
	tx, err := bi.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Safe to call even after commit

	stmt, err := tx.PrepareContext(ctx, insertAssetSQL)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, entry := range batch {
		if _, err := stmt.ExecContext(ctx, buildRowValues(position+i, entry)...); err != nil {
			return fmt.Errorf("inserting asset %s: %w", entry.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// buildRowValues constructs the ordered parameter values for an asset row
func buildRowValues(position int, entry pack.HeaderEntry) []any {
	var modified any
	if pack.IsPackedTime(entry.Version) {
		modified = entry.Timestamp().Format(time.RFC3339)
	}

	return []any{
		entry.Name,
		position,
		int64(entry.Version),
		int64(entry.Size),
		int64(entry.OrgSize),
		int64(entry.Offset),
		int64(entry.CRC),
		modified,
	}
}
