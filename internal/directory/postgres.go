// internal/directory/postgres.go
package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	stderrors "github.com/Samtoosoon/bankgpt/internal/common/errors"
	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/common/metrics"
	"github.com/Samtoosoon/bankgpt/internal/models"

	"github.com/redis/go-redis/v9"
)

const lookupQuery = `
	SELECT phone, name, credit_score, monthly_income, pre_approved_limit, blacklisted
	FROM applicants WHERE phone = $1`

// PostgresDirectory reads applicant records from Postgres with a Redis
// read-through cache. Records are cached under "applicant:<phone>" for the
// configured TTL so repeated lookups within a conversation hit the cache.
type PostgresDirectory struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewPostgresDirectory(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *PostgresDirectory {
	return &PostgresDirectory{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "directory"}),
	}
}

func (d *PostgresDirectory) Lookup(ctx context.Context, phone string) (*models.ApplicantRecord, error) {
	cacheKey := "applicant:" + phone

	if d.redis != nil {
		if val, err := d.redis.Get(ctx, cacheKey).Result(); err == nil {
			var record models.ApplicantRecord
			if err := json.Unmarshal([]byte(val), &record); err == nil {
				metrics.DirectoryLookups.WithLabelValues("cache_hit").Inc()
				return &record, nil
			}
		}
	}

	row := d.db.QueryRowContext(ctx, lookupQuery, phone)

	var record models.ApplicantRecord
	err := row.Scan(
		&record.Phone,
		&record.Name,
		&record.CreditScore,
		&record.MonthlyIncome,
		&record.PreApprovedLimit,
		&record.Blacklisted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.DirectoryLookups.WithLabelValues("miss").Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.DirectoryLookups.WithLabelValues("error").Inc()
		d.logger.Error("applicant lookup failed", map[string]interface{}{
			"phone": phone,
			"error": err.Error(),
		})
		return nil, stderrors.NewQueryExecutionFailedError("applicant lookup", err)
	}

	if d.redis != nil {
		if data, err := json.Marshal(&record); err == nil {
			if err := d.redis.Set(ctx, cacheKey, data, d.cacheTTL).Err(); err != nil {
				d.logger.Warn("applicant cache write failed", map[string]interface{}{
					"phone": phone,
					"error": err.Error(),
				})
			}
		}
	}

	metrics.DirectoryLookups.WithLabelValues("hit").Inc()
	return &record, nil
}
