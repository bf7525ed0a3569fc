package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/esgtracker/internal/config"
)

type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

func NewClients(dbCfg config.DatabaseConfig, redisCfg config.RedisConfig) (*Clients, error) {
	// Connect to PostgreSQL
	db, err := sqlx.Connect("postgres", dbCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Clients{
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (c *Clients) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Redis != nil {
		c.Redis.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL DEFAULT '',
	full_name TEXT,
	company_name TEXT,
	stripe_customer_id TEXT UNIQUE,
	subscription_status TEXT NOT NULL DEFAULT 'free',
	subscription_period TEXT,
	subscription_end_date TIMESTAMPTZ,
	reports_used_this_month INTEGER NOT NULL DEFAULT 0 CHECK (reports_used_this_month >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS esg_reports (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id TEXT NOT NULL REFERENCES profiles(id),
	company_name TEXT NOT NULL,
	industry TEXT NOT NULL,
	employee_count INTEGER,
	annual_revenue NUMERIC,
	environmental_score INTEGER NOT NULL CHECK (environmental_score BETWEEN 0 AND 100),
	social_score INTEGER NOT NULL CHECK (social_score BETWEEN 0 AND 100),
	governance_score INTEGER NOT NULL CHECK (governance_score BETWEEN 0 AND 100),
	overall_score INTEGER NOT NULL CHECK (overall_score BETWEEN 0 AND 100),
	summary TEXT NOT NULL DEFAULT '',
	environmental_details TEXT NOT NULL DEFAULT '',
	social_details TEXT NOT NULL DEFAULT '',
	governance_details TEXT NOT NULL DEFAULT '',
	compliance_status TEXT NOT NULL DEFAULT '',
	recommendations JSONB NOT NULL DEFAULT '[]',
	input_data JSONB,
	is_guest_report BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS esg_reports_user_created_idx ON esg_reports (user_id, created_at DESC);`

// CreateSchema creates the profiles and esg_reports tables if missing.
func (c *Clients) CreateSchema() error {
	if _, err := c.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Info("✅ Profiles and reports tables are ready!")
	return nil
}
