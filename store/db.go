package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

// commonDSNParams are shared between the write and read handles: WAL
// journaling so readers never block the writer, a generous busy_timeout
// as the last line of defense against SQLITE_BUSY, and NORMAL
// synchronous durability (safe under WAL).
const commonDSNParams = "_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

// Open opens path as a pair of SQLite handles and creates the schema if
// absent.
//
// The write handle is restricted to a single connection and carries
// _txlock=immediate, so every bun transaction acquires SQLite's
// RESERVED lock at BEGIN rather than at first write; this gives
// txn_immediate() semantics without hand-written locking. The read
// handle allows several concurrent connections and runs ordinary
// deferred transactions, free to proceed under WAL while the writer
// holds its lock.
func Open(ctx context.Context, path string) (*DB, error) {
	writeDSN := fmt.Sprintf("file:%s?_txlock=immediate&%s", path, commonDSNParams)
	readDSN := fmt.Sprintf("file:%s?%s", path, commonDSNParams)

	writeSQL, err := sql.Open("sqlite", writeDSN)
	if err != nil {
		return nil, fmt.Errorf("open write handle: %w", err)
	}
	writeSQL.SetMaxOpenConns(1)

	readSQL, err := sql.Open("sqlite", readDSN)
	if err != nil {
		writeSQL.Close()
		return nil, fmt.Errorf("open read handle: %w", err)
	}
	readSQL.SetMaxOpenConns(4)

	write := bun.NewDB(writeSQL, sqlitedialect.New())
	read := bun.NewDB(readSQL, sqlitedialect.New())

	d := &DB{write: write, read: read}
	if err := d.init(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// DB wraps the write and read SQLite handles backing a Repository.
type DB struct {
	write *bun.DB
	read  *bun.DB
}

// Close closes both underlying handles.
func (d *DB) Close() error {
	return errors.Join(d.write.Close(), d.read.Close())
}

func createTable(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*jobModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func createClaimIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_state_available").
		Column("state", "available_at").
		IfNotExists().
		Exec(ctx)
	return err
}

func createStateIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_state").
		Column("state").
		IfNotExists().
		Exec(ctx)
	return err
}

func createUpdatedIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_state_updated").
		Column("state", "updated_at").
		IfNotExists().
		Exec(ctx)
	return err
}

func (d *DB) init(ctx context.Context) error {
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := createTable(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createClaimIndex(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createStateIndex(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createUpdatedIndex(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}
