package query

import (
	"KeyFold/internal/config"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// AggregationRequest bounds a per-task totals query.
type AggregationRequest struct {
	TaskName  string     `json:"task_name,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// TaskSummary is one row of an aggregation result.
type TaskSummary struct {
	TaskName     string  `json:"task_name"`
	TotalRecords uint64  `json:"total_records"`
	TotalSum     float64 `json:"total_sum"`
	KeyCount     uint64  `json:"key_count"`
}

// TopKRequest asks for the heaviest keys of a task by one stat column.
type TopKRequest struct {
	TaskName string     `json:"task_name"`
	OrderBy  string     `json:"order_by,omitempty"` // records | sum | max
	Limit    int        `json:"limit,omitempty"`
	EndTime  *time.Time `json:"end_time,omitempty"`
}

// KeyStat is one per-key row of a top-k result.
type KeyStat struct {
	Key     string    `json:"key"`
	Records uint64    `json:"records"`
	Sum     float64   `json:"sum"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	First   time.Time `json:"first_seen"`
	Last    time.Time `json:"last_seen"`
}

// Querier defines the interface for querying aggregated key stats.
type Querier interface {
	AggregateTasks(ctx context.Context, req *AggregationRequest) ([]TaskSummary, error)
	TopKeys(ctx context.Context, req *TopKRequest) ([]KeyStat, error)
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn clickhouse.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// AggregateTasks builds and executes a dynamic per-task totals query. Because
// snapshots within a measurement period are cumulative, only the latest row
// per (task, key) is counted.
func (q *clickhouseQuerier) AggregateTasks(ctx context.Context, req *AggregationRequest) ([]TaskSummary, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			TaskName,
			SUM(LatestRecordCount) AS TotalRecords,
			SUM(LatestSum) AS TotalSum,
			COUNT(*) AS KeyCount
		FROM (
			SELECT
				TaskName,
				argMax(RecordCount, Timestamp) AS LatestRecordCount,
				argMax(Sum, Timestamp) AS LatestSum
			FROM keyed_stats
	`)

	var whereClauses []string
	args := []interface{}{}

	if req.StartTime != nil {
		whereClauses = append(whereClauses, "Timestamp >= ?")
		args = append(args, *req.StartTime)
	}
	if req.EndTime != nil {
		whereClauses = append(whereClauses, "Timestamp <= ?")
		args = append(args, *req.EndTime)
	}
	if req.TaskName != "" {
		whereClauses = append(whereClauses, "TaskName = ?")
		args = append(args, req.TaskName)
	}

	if len(whereClauses) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(whereClauses, " AND "))
	}

	queryBuilder.WriteString(`
			GROUP BY TaskName, Key
		)
		GROUP BY TaskName
	`)

	rows, err := q.conn.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var summaries []TaskSummary
	for rows.Next() {
		var summary TaskSummary
		if err := rows.Scan(&summary.TaskName, &summary.TotalRecords, &summary.TotalSum, &summary.KeyCount); err != nil {
			return nil, fmt.Errorf("failed to scan aggregation result: %w", err)
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// orderColumns maps the request's order_by names onto stat columns. Keeping
// the mapping closed also keeps user input out of the SQL text.
var orderColumns = map[string]string{
	"":        "Records",
	"records": "Records",
	"sum":     "Sum",
	"max":     "Max",
}

// TopKeys returns the heaviest keys of a task, latest row per key.
func (q *clickhouseQuerier) TopKeys(ctx context.Context, req *TopKRequest) ([]KeyStat, error) {
	if req.TaskName == "" {
		return nil, fmt.Errorf("task_name is required")
	}
	orderCol, ok := orderColumns[req.OrderBy]
	if !ok {
		return nil, fmt.Errorf("unknown order_by: '%s'", req.OrderBy)
	}
	limit := req.Limit
	if limit <= 0 || limit > 1000 {
		limit = 10
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			Key,
			argMax(RecordCount, Timestamp) AS Records,
			argMax(Sum, Timestamp) AS Sum,
			argMax(Min, Timestamp) AS Min,
			argMax(Max, Timestamp) AS Max,
			min(FirstSeen) AS First,
			max(LastSeen) AS Last
		FROM keyed_stats
		WHERE TaskName = ?
	`)

	args := []interface{}{req.TaskName}
	if req.EndTime != nil {
		queryBuilder.WriteString(" AND Timestamp <= ?")
		args = append(args, *req.EndTime)
	}

	queryBuilder.WriteString(fmt.Sprintf(`
		GROUP BY Key
		ORDER BY %s DESC
		LIMIT %d
	`, orderCol, limit))

	rows, err := q.conn.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var stats []KeyStat
	for rows.Next() {
		var s KeyStat
		if err := rows.Scan(&s.Key, &s.Records, &s.Sum, &s.Min, &s.Max, &s.First, &s.Last); err != nil {
			return nil, fmt.Errorf("failed to scan top-k result: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, nil
}
