package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hypernova-labs/sifen-service/internal/config"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound indica que la fila buscada no existe
	ErrNotFound = errors.New("record not found")
	// ErrConflict indica la violación de una restricción de unicidad
	ErrConflict = errors.New("record conflicts with an existing one")
	// ErrStaleVersion indica que otra escritura modificó la fila desde que fue leída
	ErrStaleVersion = errors.New("record was modified concurrently")
)

// DB representa la conexión a la base de datos
type DB struct {
	*sql.DB
	queryTimeout time.Duration
}

// Connect establece la conexión a PostgreSQL
func Connect(cfg *config.Config) (*DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return NewDB(db, cfg.Database.QueryTimeout), nil
}

// NewDB envuelve una conexión existente
func NewDB(db *sql.DB, queryTimeout time.Duration) *DB {
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &DB{DB: db, queryTimeout: queryTimeout}
}

// HealthCheck verifica la salud de la base de datos
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database query test failed: %w", err)
	}
	return nil
}

// LogStats registra las estadísticas del pool
func (db *DB) LogStats(logger *logrus.Logger) {
	stats := db.Stats()
	logger.WithFields(logrus.Fields{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
	}).Info("Database pool statistics")
}

// WithTimeout deriva un contexto con el timeout de consultas configurado.
// El cancel debe diferirse hasta terminar de leer las filas.
func (db *DB) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.queryTimeout)
}

// ExecWithTimeout ejecuta una sentencia con timeout
func (db *DB) ExecWithTimeout(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	return db.ExecContext(ctx, query, args...)
}

// WithTransaction ejecuta una función dentro de una transacción
func (db *DB) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("error rolling back transaction: %w, original error: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// expectOneRow traduce cero filas afectadas al error indicado
func expectOneRow(result sql.Result, missing error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return missing
	}
	return nil
}

// isUniqueViolation detecta el código 23505 de PostgreSQL
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}
