package database

import (
	"context"
	"fmt"
	"strings"
)

// SchemaProgressCallback is called during schema creation to report progress
type SchemaProgressCallback func(current int, total int, description string)

// DDLRequest is a single schema statement
type DDLRequest struct {
	DDL         string
	TableName   string
	Description string
}

// Table names of the catalog index
const (
	AssetsTable  = "assets"
	PackageTable = "_package"
)

// catalogDDL creates the catalog index. position is the asset's place in
// the package name list; modified is the decoded version timestamp, NULL
// when the version was not produced from a timestamp.
var catalogDDL = []DDLRequest{
	{
		TableName:   AssetsTable,
		Description: "assets table",
		DDL: `CREATE TABLE IF NOT EXISTS "assets" (
    "name" TEXT PRIMARY KEY,
    "position" INTEGER NOT NULL,
    "version" INTEGER NOT NULL,
    "size" INTEGER NOT NULL,
    "org_size" INTEGER NOT NULL,
    "offset" INTEGER NOT NULL,
    "crc" INTEGER NOT NULL,
    "modified" TEXT
)`,
	},
	{
		TableName:   AssetsTable,
		Description: "assets offset index",
		DDL:         `CREATE INDEX IF NOT EXISTS "assets_offset" ON "assets" ("offset")`,
	},
	{
		TableName:   PackageTable,
		Description: "package metadata table",
		DDL: `CREATE TABLE IF NOT EXISTS "_package" (
    "key" TEXT PRIMARY KEY,
    "value" TEXT NOT NULL
)`,
	},
}

// DDLManager handles creation of the catalog index schema
type DDLManager struct {
	db *Database
}

// NewDDLManager creates a new DDL manager
func NewDDLManager(db *Database) *DDLManager {
	return &DDLManager{db: db}
}

// CreateSchema creates every catalog index table in one transaction
func (dm *DDLManager) CreateSchema(ctx context.Context, progressCallback SchemaProgressCallback) error {
	return dm.executeDDLTransaction(ctx, catalogDDL, "catalog index", progressCallback)
}

// executeDDLTransaction executes DDL statements in a single transaction with progress reporting
func (dm *DDLManager) executeDDLTransaction(ctx context.Context, ddlRequests []DDLRequest, description string, progressCallback SchemaProgressCallback) error {
	if len(ddlRequests) == 0 {
		return nil
	}

	tx, err := dm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction for %s: %w", description, err)
	}
	defer tx.Rollback() // Safe to call even after commit

	for i, req := range ddlRequests {
		if _, err := tx.ExecContext(ctx, req.DDL); err != nil {
			return fmt.Errorf("executing DDL for %s in %s: %w", req.TableName, description, err)
		}
		if progressCallback != nil {
			progressCallback(i+1, len(ddlRequests), req.Description)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing DDL transaction for %s: %w", description, err)
	}
	return nil
}

// Column describes a table column as reported by PRAGMA table_info
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	Default    any
	PrimaryKey bool
}

// TableColumns returns the columns of table in declaration order
func (dm *DDLManager) TableColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := dm.db.Query(ctx, "PRAGMA table_info("+quoteSQLIdentifier(table)+")")
	if err != nil {
		return nil, fmt.Errorf("getting schema for table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			cid     int
			col     Column
			notNull int
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &col.Default, &pk); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		col.NotNull = notNull != 0
		col.PrimaryKey = pk != 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schema: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return columns, nil
}

// quoteSQLIdentifier quotes an identifier for SQLite
func quoteSQLIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
