package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/surplus/internal/model"
)

// ErrColumnExists is returned by the schema upgrade when the column is already
// present. Initialize treats it as a no-op.
var ErrColumnExists = errors.New("column already exists")

// ErrCheckpointBusy is returned by Checkpoint when another connection kept the
// WAL from being fully copied back.
var ErrCheckpointBusy = errors.New("checkpoint blocked by a concurrent reader or writer")

// Order selects the id ordering of List results.
type Order int

const (
	// OrderNewestFirst sorts by descending id. Used for browsing.
	OrderNewestFirst Order = iota

	// OrderOldestFirst sorts by ascending id. Used for export.
	OrderOldestFirst
)

// String returns the SQL direction for the order.
func (o Order) String() string {
	if o == OrderOldestFirst {
		return "ASC"
	}
	return "DESC"
}

// ListOptions filters and orders List results.
type ListOptions struct {
	// Query, when non-empty, keeps rows whose serial number, tag number or
	// device type contains it as a case-sensitive substring.
	Query string

	// Order is the id ordering of the result.
	Order Order
}

// DeviceDB provides SQLite-based storage for device records.
type DeviceDB struct {
	// db is the underlying SQL connection pool.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// logger receives schema upgrade diagnostics.
	logger *slog.Logger
}

// Options configures DeviceDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file and its directory if they
	// don't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers don't block the writer.
	EnableWAL bool

	// Logger receives schema diagnostics. slog.Default() is used when nil.
	Logger *slog.Logger
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the device database at path and initializes the schema.
// If CreateIfNotExists is false and the file doesn't exist, an error is returned.
func Open(path string, opts Options) (*DeviceDB, error) {
	if opts.CreateIfNotExists {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", path)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := path + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = path + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ddb := &DeviceDB{
		db:     db,
		dbPath: path,
		logger: logger,
	}

	ctx := context.Background()

	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := ddb.Initialize(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return ddb, nil
}

// Close closes the database.
func (ddb *DeviceDB) Close() error {
	return ddb.db.Close()
}

// Path returns the database file path.
func (ddb *DeviceDB) Path() string {
	return ddb.dbPath
}

// withConn runs fn on a dedicated connection and always releases it.
func (ddb *DeviceDB) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := ddb.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// Initialize creates the devices table if it is missing and adds the
// device_type column to tables created before it existed. It is idempotent.
//
// The column upgrade is best-effort: a failure is logged and discarded so an
// odd legacy file never prevents startup.
func (ddb *DeviceDB) Initialize(ctx context.Context) error {
	return ddb.withConn(ctx, func(conn *sql.Conn) error {
		schema := `
		CREATE TABLE IF NOT EXISTS devices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			serial_number TEXT NOT NULL,
			tag_number TEXT NOT NULL,
			device_type TEXT DEFAULT 'Unknown',
			created_at TEXT NOT NULL
		)`
		if _, err := conn.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("failed to create devices table: %w", err)
		}

		err := addDeviceTypeColumn(ctx, conn)
		switch {
		case err == nil:
			ddb.logger.Info("added device_type column to legacy devices table", "db", ddb.dbPath)
		case errors.Is(err, ErrColumnExists):
			ddb.logger.Debug("schema upgrade skipped", "db", ddb.dbPath, "reason", err)
		default:
			ddb.logger.Warn("schema upgrade failed", "db", ddb.dbPath, "error", err)
		}
		return nil
	})
}

// addDeviceTypeColumn adds device_type to the devices table. It returns an
// error wrapping ErrColumnExists when the column is already there.
func addDeviceTypeColumn(ctx context.Context, conn *sql.Conn) error {
	_, err := conn.ExecContext(ctx, "ALTER TABLE devices ADD COLUMN device_type TEXT DEFAULT 'Unknown'")
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
		return fmt.Errorf("device_type: %w", ErrColumnExists)
	}
	return fmt.Errorf("failed to add device_type column: %w", err)
}

// Insert stores a new device and returns its assigned id. On success the id
// and the stored created_at text are also written to device.
func (ddb *DeviceDB) Insert(ctx context.Context, device *model.Device) (int64, error) {
	var id int64
	createdAt := device.CreatedAtText()
	err := ddb.withConn(ctx, func(conn *sql.Conn) error {
		query := `
		INSERT INTO devices (serial_number, tag_number, device_type, created_at)
		VALUES (?, ?, ?, ?)
		`
		result, err := conn.ExecContext(ctx, query,
			device.SerialNumber,
			device.TagNumber,
			device.DeviceType,
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert device: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	device.ID = id
	device.StoredCreatedAt = createdAt
	return id, nil
}

// List returns devices matching opts in the requested order. All matching rows
// are returned; there is no pagination.
func (ddb *DeviceDB) List(ctx context.Context, opts ListOptions) ([]model.Device, error) {
	query := `
	SELECT id, serial_number, tag_number, COALESCE(device_type, 'Unknown'), created_at
	FROM devices
	`
	args := make([]interface{}, 0, 3)

	// instr is case-sensitive, unlike LIKE which folds ASCII case.
	if opts.Query != "" {
		query += `WHERE instr(serial_number, ?) > 0
		OR instr(tag_number, ?) > 0
		OR instr(COALESCE(device_type, ''), ?) > 0
		`
		args = append(args, opts.Query, opts.Query, opts.Query)
	}

	query += "ORDER BY id " + opts.Order.String()

	var devices []model.Device
	err := ddb.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query devices: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var device model.Device
			var createdAt string

			if err := rows.Scan(
				&device.ID,
				&device.SerialNumber,
				&device.TagNumber,
				&device.DeviceType,
				&createdAt,
			); err != nil {
				return fmt.Errorf("failed to scan device: %w", err)
			}

			device.StoredCreatedAt = createdAt
			device.CreatedAt = model.ParseTimestamp(createdAt)
			devices = append(devices, device)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return devices, nil
}

// Count returns the number of stored devices.
func (ddb *DeviceDB) Count(ctx context.Context) (int, error) {
	var count int
	err := ddb.withConn(ctx, func(conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices").Scan(&count); err != nil {
			return fmt.Errorf("failed to count devices: %w", err)
		}
		return nil
	})
	return count, err
}

// Checkpoint copies every committed WAL frame into the main database file and
// truncates the WAL, so a file-level copy of the database alone holds every
// row. It is a no-op in rollback-journal mode.
func (ddb *DeviceDB) Checkpoint(ctx context.Context) error {
	return ddb.withConn(ctx, func(conn *sql.Conn) error {
		var busy, logFrames, checkpointed int
		if err := conn.QueryRowContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)").Scan(&busy, &logFrames, &checkpointed); err != nil {
			return fmt.Errorf("failed to checkpoint database: %w", err)
		}
		if busy != 0 {
			return fmt.Errorf("failed to checkpoint database: %w", ErrCheckpointBusy)
		}
		return nil
	})
}

// Ping verifies the database file is reachable.
func (ddb *DeviceDB) Ping(ctx context.Context) error {
	return ddb.withConn(ctx, func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}
