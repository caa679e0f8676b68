package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "lingua_user")
	password := getEnv("DB_PASSWORD", "lingua_password")
	dbname := getEnv("DB_NAME", "lingua_prep")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS word_records (
		user_id                BIGINT NOT NULL,
		word_id                BIGINT NOT NULL,
		target_word            VARCHAR(255) NOT NULL,
		native_translation     VARCHAR(255) NOT NULL DEFAULT '',
		interval_days          INT NOT NULL DEFAULT 1 CHECK (interval_days >= 1),
		ease_factor            DOUBLE PRECISION NOT NULL DEFAULT 2.5,
		due_date               TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		repetitions            INT NOT NULL DEFAULT 0 CHECK (repetitions >= 0),
		recognition_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
		production_score       INT NOT NULL DEFAULT 0 CHECK (production_score >= 0 AND production_score <= 100),
		pronunciation_score    INT NOT NULL DEFAULT 0 CHECK (pronunciation_score >= 0 AND pronunciation_score <= 100),
		contextual_usage_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		exposure_count         INT NOT NULL DEFAULT 0,
		tags                   TEXT[] NOT NULL DEFAULT '{}',
		status                 VARCHAR(20) NOT NULL DEFAULT 'new',
		last_reviewed          TIMESTAMP WITH TIME ZONE,
		version                INT NOT NULL DEFAULT 0,
		created_at             TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at             TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (user_id, word_id)
	);

	CREATE INDEX IF NOT EXISTS idx_word_records_due ON word_records(user_id, due_date);
	CREATE INDEX IF NOT EXISTS idx_word_records_status ON word_records(user_id, status);

	CREATE TABLE IF NOT EXISTS review_history (
		id               BIGSERIAL PRIMARY KEY,
		user_id          BIGINT NOT NULL,
		word_id          BIGINT NOT NULL,
		module_source    VARCHAR(20) NOT NULL,
		reviewed_at      TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		correct          BOOLEAN NOT NULL,
		response_time_ms INT,
		input_mode       VARCHAR(20),
		session_id       VARCHAR(100) NOT NULL DEFAULT '',
		event_id         VARCHAR(200) NOT NULL,
		UNIQUE(event_id)
	);

	CREATE INDEX IF NOT EXISTS idx_history_word ON review_history(user_id, word_id, reviewed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_history_user_date ON review_history(user_id, reviewed_at DESC);

	CREATE TABLE IF NOT EXISTS concept_mastery (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL,
		concept_tag    VARCHAR(100) NOT NULL,
		mastery_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
		exposure_count INT NOT NULL DEFAULT 0,
		last_updated   TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, concept_tag)
	);

	CREATE INDEX IF NOT EXISTS idx_mastery_user ON concept_mastery(user_id, mastery_score);

	CREATE TABLE IF NOT EXISTS legacy_word_stats (
		user_id       BIGINT NOT NULL,
		word_id       BIGINT NOT NULL,
		interval_days INT NOT NULL DEFAULT 1,
		ease_factor   DOUBLE PRECISION NOT NULL DEFAULT 2.5,
		repetitions   INT NOT NULL DEFAULT 0,
		is_learned    BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at    TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (user_id, word_id)
	);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Idempotent ALTERs for databases created before these columns existed.
	alterStatements := []string{
		`ALTER TABLE word_records ADD COLUMN IF NOT EXISTS version INT NOT NULL DEFAULT 0`,
		`ALTER TABLE word_records ADD COLUMN IF NOT EXISTS contextual_usage_score DOUBLE PRECISION NOT NULL DEFAULT 0`,
		`ALTER TABLE review_history ADD COLUMN IF NOT EXISTS session_id VARCHAR(100) NOT NULL DEFAULT ''`,
	}
	for _, stmt := range alterStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("alter table failed: %w", err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
