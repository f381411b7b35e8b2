package sqldb

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS da_members (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		name TEXT NOT NULL,
		grade TEXT NOT NULL CHECK (grade IN ('Manager', 'Partner', 'SM', 'Associate', 'Analyst')),
		gender TEXT NOT NULL CHECK (gender IN ('male', 'female'))
	)`,
	`CREATE INDEX IF NOT EXISTS da_members_created_at_idx ON da_members (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		author TEXT NOT NULL,
		views BIGINT NOT NULL DEFAULT 0 CHECK (views >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS auth_accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		metadata TEXT NOT NULL,
		confirmed_at TIMESTAMPTZ NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		user_id TEXT NOT NULL,
		hash TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS auth_tokens_user_id_idx ON auth_tokens (user_id)`,
}

var mysqlSchema = []string{
	"CREATE TABLE IF NOT EXISTS `da_members` (" +
		"`id` BIGINT AUTO_INCREMENT PRIMARY KEY," +
		"`created_at` DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)," +
		"`name` VARCHAR(100) NOT NULL," +
		"`grade` VARCHAR(16) NOT NULL CHECK (`grade` IN ('Manager', 'Partner', 'SM', 'Associate', 'Analyst'))," +
		"`gender` VARCHAR(8) NOT NULL CHECK (`gender` IN ('male', 'female'))," +
		"INDEX `da_members_created_at_idx` (`created_at`))",
	"CREATE TABLE IF NOT EXISTS `posts` (" +
		"`id` BIGINT AUTO_INCREMENT PRIMARY KEY," +
		"`created_at` DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)," +
		"`title` VARCHAR(255) NOT NULL," +
		"`content` TEXT NOT NULL," +
		"`author` VARCHAR(100) NOT NULL," +
		"`views` BIGINT NOT NULL DEFAULT 0 CHECK (`views` >= 0)," +
		"INDEX `posts_created_at_idx` (`created_at`))",
	"CREATE TABLE IF NOT EXISTS `auth_accounts` (" +
		"`id` VARCHAR(36) PRIMARY KEY," +
		"`email` VARCHAR(255) NOT NULL UNIQUE," +
		"`password_hash` VARCHAR(255) NOT NULL," +
		"`metadata` TEXT NOT NULL," +
		"`confirmed_at` DATETIME(6) NULL," +
		"`created_at` DATETIME(6) NOT NULL," +
		"`updated_at` DATETIME(6) NOT NULL)",
	"CREATE TABLE IF NOT EXISTS `auth_tokens` (" +
		"`id` VARCHAR(36) PRIMARY KEY," +
		"`kind` VARCHAR(16) NOT NULL," +
		"`user_id` VARCHAR(36) NOT NULL," +
		"`hash` CHAR(64) NOT NULL UNIQUE," +
		"`created_at` DATETIME(6) NOT NULL," +
		"`expires_at` DATETIME(6) NOT NULL," +
		"INDEX `auth_tokens_user_id_idx` (`user_id`))",
}

// Schema returns the statements that create the dashboard's tables.
func Schema(d Dialect) []string {
	if d == MySQL {
		return mysqlSchema
	}
	return postgresSchema
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *DB) error {
	for _, stmt := range Schema(db.d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", translate(err))
		}
	}
	return nil
}
