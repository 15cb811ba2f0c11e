package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	imageDomain "github.com/davicafu/imagelab/internal/image/domain"
)

// ProcessingAnalyticsRepo implementa la interfaz AnalyticsRecorder para ClickHouse.
type ProcessingAnalyticsRepo struct {
	db *sql.DB
}

// NewProcessingAnalyticsRepo es el constructor.
func NewProcessingAnalyticsRepo(addr string, dbName string) (*ProcessingAnalyticsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &ProcessingAnalyticsRepo{db: conn}, nil
}

// LogResult inserta el resultado terminal de un procesado.
func (r *ProcessingAnalyticsRepo) LogResult(ctx context.Context, record imageDomain.ProcessingRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO processing_log (image_id, user_id, style, status, processing_ms, event_time) VALUES (?,?,?,?,?,?)",
		record.ImageID,
		record.UserID,
		record.Style,
		string(record.Status),
		record.ProcessingMs,
		record.EventTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert processing log: %w", err)
	}
	return nil
}

// AverageProcessingTime calcula la media de procesado por estilo en un rango.
func (r *ProcessingAnalyticsRepo) AverageProcessingTime(ctx context.Context, style string, start, end time.Time) (time.Duration, error) {
	query := `
		SELECT avg(processing_ms)
		FROM processing_log
		WHERE style = ? AND status = 'processed' AND event_time BETWEEN ? AND ?
	`
	var avgMs sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, style, start, end).Scan(&avgMs); err != nil {
		return 0, err
	}
	if !avgMs.Valid {
		return 0, nil // No hay datos para calcular
	}
	return time.Duration(avgMs.Float64) * time.Millisecond, nil
}

// FailureRate devuelve la fracción de fallos por estilo en un rango.
func (r *ProcessingAnalyticsRepo) FailureRate(ctx context.Context, style string, start, end time.Time) (float64, error) {
	query := `
		SELECT countIf(status = 'failed') / count() AS rate
		FROM processing_log
		WHERE style = ? AND event_time BETWEEN ? AND ?
	`
	var rate sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, style, start, end).Scan(&rate); err != nil {
		return 0, err
	}
	return rate.Float64, nil
}

// InitSchema crea la tabla en ClickHouse si no existe.
func (r *ProcessingAnalyticsRepo) InitSchema() error {
	// Particionada por mes y ordenada por los campos habituales de consulta.
	query := `
		CREATE TABLE IF NOT EXISTS processing_log (
			image_id      UUID,
			user_id       UUID,
			style         String,
			status        String,
			processing_ms Int64,
			event_time    DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (user_id, style, event_time);
	`
	_, err := r.db.Exec(query)
	return err
}

// Verificación estática de las interfaces.
var (
	_ imageDomain.AnalyticsRecorder = (*ProcessingAnalyticsRepo)(nil)
	_ imageDomain.AnalyticsReader   = (*ProcessingAnalyticsRepo)(nil)
)
