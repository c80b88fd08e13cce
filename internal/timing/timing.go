package timing

import (
	"context"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatIngest measures whole paper ingestion, with the amount being the
// number of characters of the paper text.
const StatIngest = "ingest"

// sampleSize is how many recent samples a prediction is based on.
const sampleSize = 50

const addProcessingTimeSQL = `
INSERT INTO processing_stats (stat_type, amount, duration_ms)
VALUES ($1, $2, $3)`

// Milliseconds per unit over the most recent samples, scaled to $3 units.
const predictProcessingTimeSQL = `
SELECT COALESCE(SUM(duration_ms)::float8 / NULLIF(SUM(amount), 0), 0) * $3
FROM (
    SELECT amount, duration_ms
    FROM processing_stats
    WHERE stat_type = $1
    ORDER BY created_at DESC
    LIMIT $2
) recent`

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ dbConn = (*pgxpool.Pool)(nil)

// Recorder stores processing durations and predicts new ones from them.
type Recorder struct {
	conn dbConn
}

func NewRecorder(conn dbConn) *Recorder {
	return &Recorder{conn: conn}
}

// AddProcessingTime records that amount units of statType took durationMs.
func (r *Recorder) AddProcessingTime(ctx context.Context, statType string, amount int, durationMs int64) error {
	if amount > math.MaxInt32 {
		amount = math.MaxInt32
	}
	_, err := r.conn.Exec(ctx, addProcessingTimeSQL, statType, int32(amount), durationMs)
	return err
}

// PredictProcessingTime estimates the milliseconds amount units of
// statType will take. It is 0 without samples.
func (r *Recorder) PredictProcessingTime(ctx context.Context, statType string, amount int) (int64, error) {
	var ms float64
	if err := r.conn.QueryRow(ctx, predictProcessingTimeSQL, statType, sampleSize, amount).Scan(&ms); err != nil {
		return 0, err
	}
	return int64(math.Round(ms)), nil
}
