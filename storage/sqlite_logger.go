// Package storage provides functionalities for data persistence:
// SQLite logging of monitoring records and CSV export of the collected
// tables.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/greyshaman/runen/status"
)

// SQLiteLogger persists drained monitoring records into an SQLite
// database, one table per record kind.
type SQLiteLogger struct {
	db *sql.DB
}

// NewSQLiteLogger opens (recreating) the database file and prepares
// the status tables. Each logging session starts from an empty file.
func NewSQLiteLogger(dataSourceName string) (*SQLiteLogger, error) {
	_ = os.Remove(dataSourceName) // Ignore error if the file does not exist.

	dbConn, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening SQLite database at %s: %w", dataSourceName, err)
	}
	if err = dbConn.Ping(); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("pinging SQLite database at %s: %w", dataSourceName, err)
	}

	logger := &SQLiteLogger{db: dbConn}
	if err = logger.createTables(); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("creating SQLite tables: %w", err)
	}
	return logger, nil
}

// createTables defines and executes the schema of both status tables.
func (sl *SQLiteLogger) createTables() error {
	neuronStatusesSQL := `
    CREATE TABLE IF NOT EXISTS NeuronStatuses (
        RecordID INTEGER PRIMARY KEY AUTOINCREMENT,
        Timestamp DATETIME NOT NULL,
        NeuronID TEXT NOT NULL,
        DendriteCount INTEGER,
        DendriteConnectedCount INTEGER,
        DendriteHitCount INTEGER,
        ResetCount INTEGER,
        HitCount INTEGER,
        Accumulator INTEGER,
        ReceiverCount INTEGER,
        TotalWeight INTEGER
    );`
	if _, err := sl.db.Exec(neuronStatusesSQL); err != nil {
		return fmt.Errorf("creating NeuronStatuses table: %w", err)
	}

	portStatusesSQL := `
    CREATE TABLE IF NOT EXISTS PortStatuses (
        RecordID INTEGER PRIMARY KEY AUTOINCREMENT,
        Timestamp DATETIME NOT NULL,
        PortID TEXT NOT NULL,
        HitCount INTEGER,
        SignalIntensity INTEGER,
        SignalCreatedAt DATETIME
    );`
	if _, err := sl.db.Exec(portStatusesSQL); err != nil {
		return fmt.Errorf("creating PortStatuses table: %w", err)
	}
	return nil
}

// LogRecords writes a batch of drained monitoring records in one
// transaction.
func (sl *SQLiteLogger) LogRecords(records []status.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := sl.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning status transaction: %w", err)
	}

	neuronStmt, err := tx.Prepare(`
        INSERT INTO NeuronStatuses
        (Timestamp, NeuronID, DendriteCount, DendriteConnectedCount, DendriteHitCount,
         ResetCount, HitCount, Accumulator, ReceiverCount, TotalWeight)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing NeuronStatuses insert: %w", err)
	}
	defer neuronStmt.Close()

	portStmt, err := tx.Prepare(`
        INSERT INTO PortStatuses
        (Timestamp, PortID, HitCount, SignalIntensity, SignalCreatedAt)
        VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing PortStatuses insert: %w", err)
	}
	defer portStmt.Close()

	for _, record := range records {
		switch r := record.(type) {
		case status.NeuronInfo:
			_, err = neuronStmt.Exec(
				r.Timestamp.Format(time.RFC3339Nano), r.ID,
				r.DendriteCount, r.DendriteConnectedCount, r.DendriteHitCount,
				r.ResetCount, r.HitCount, int64(r.Accumulator), r.ReceiverCount, int64(r.TotalWeight),
			)
		case status.PortInfo:
			_, err = portStmt.Exec(
				r.Timestamp.Format(time.RFC3339Nano), r.ID,
				uint64(r.HitCount), int64(r.RecentSignal.Intensity),
				r.RecentSignal.CreatedAt.Format(time.RFC3339Nano),
			)
		default:
			continue
		}
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting status record for %s: %w", record.RecordID(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing status transaction: %w", err)
	}
	return nil
}

// DB exposes the underlying handle, e.g. for queries in tests. The CSV
// exporter opens its own read-only connection instead.
func (sl *SQLiteLogger) DB() *sql.DB {
	return sl.db
}

// Close releases the database connection.
func (sl *SQLiteLogger) Close() error {
	return sl.db.Close()
}
