package storage

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// exportableTables whitelists the tables ExportLogData may read; the
// table name is spliced into the query text.
var exportableTables = map[string]struct{}{
	"NeuronStatuses": {},
	"PortStatuses":   {},
}

// ExportLogData reads the given table from the SQLite database at
// dbPath and writes it as CSV to outputPath. An empty outputPath
// writes to stdout.
func ExportLogData(dbPath, tableName, outputPath string) error {
	if _, ok := exportableTables[tableName]; !ok {
		return fmt.Errorf("unsupported table %q, must be 'NeuronStatuses' or 'PortStatuses'", tableName)
	}

	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("opening SQLite database at %s: %w", dbPath, err)
	}
	defer db.Close()
	if err = db.Ping(); err != nil {
		return fmt.Errorf("pinging SQLite database at %s: %w", dbPath, err)
	}

	var out io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating export file %s: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}
	return exportTableCSV(db, tableName, out)
}

// exportTableCSV streams one table into the CSV writer, header first.
func exportTableCSV(db *sql.DB, tableName string, out io.Writer) error {
	rows, err := db.Query("SELECT * FROM " + tableName)
	if err != nil {
		return fmt.Errorf("querying table %s: %w", tableName, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("reading columns of %s: %w", tableName, err)
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}
	record := make([]string, len(columns))

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return fmt.Errorf("scanning row of %s: %w", tableName, err)
		}
		for i, v := range values {
			switch cell := v.(type) {
			case nil:
				record[i] = ""
			case []byte:
				record[i] = string(cell)
			default:
				record[i] = fmt.Sprint(cell)
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows of %s: %w", tableName, err)
	}
	writer.Flush()
	return writer.Error()
}
