package database

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn   *sql.DB
	dbType string
}

type Config struct {
	Type       string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SQLitePath string
}

func NewDB(config Config) (*DB, error) {
	var conn *sql.DB
	var err error

	switch config.Type {
	case "sqlite":
		conn, err = sql.Open("sqlite3", config.SQLitePath)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			config.Host, config.Port, config.User, config.Password, config.Name)
		conn, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, dbType: config.Type}

	// SQLite stores are file-local and self-bootstrapping; postgres
	// schemas are managed externally.
	if config.Type == "sqlite" {
		if err := db.createTables(); err != nil {
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return db, nil
}

func (db *DB) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS watch_sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		source TEXT NOT NULL,
		conf_threshold REAL NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		total_processed INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS frame_results (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES watch_sessions(id),
		frame_index INTEGER NOT NULL,
		face_count INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		report TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE(session_id, frame_index)
	);
	`

	_, err := db.conn.Exec(query)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
