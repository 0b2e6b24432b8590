package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate. Every statement is idempotent.
// Usernames and emails are unique per table only: a user and an
// administrator may share a username.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               CHAR(36)     NOT NULL PRIMARY KEY,
		username         VARCHAR(50)  NOT NULL,
		email            VARCHAR(100) NOT NULL,
		password_hash    VARCHAR(255) NOT NULL,
		full_name        VARCHAR(100) NULL,
		phone_number     VARCHAR(20)  NULL,
		membership_level VARCHAR(20)  NOT NULL DEFAULT 'NORMAL',
		status           VARCHAR(20)  NOT NULL DEFAULT 'ACTIVE',
		created_at       DATETIME     NOT NULL,
		updated_at       DATETIME     NOT NULL,
		deleted_at       DATETIME     NULL,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS admins (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		username      VARCHAR(50)  NOT NULL,
		email         VARCHAR(100) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		full_name     VARCHAR(100) NULL,
		status        VARCHAR(20)  NOT NULL DEFAULT 'ACTIVE',
		created_at    DATETIME     NOT NULL,
		updated_at    DATETIME     NOT NULL,
		UNIQUE KEY uq_admins_username (username),
		UNIQUE KEY uq_admins_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		principal_id CHAR(36)        NOT NULL,
		token_hash   CHAR(64)        NOT NULL,
		expires_at   DATETIME        NOT NULL,
		created_at   DATETIME        NOT NULL,
		UNIQUE KEY uq_refresh_tokens_token_hash (token_hash),
		KEY idx_refresh_tokens_principal (principal_id),
		KEY idx_refresh_tokens_expires (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS resources (
		id         CHAR(36)    NOT NULL,
		kind       VARCHAR(40) NOT NULL,
		body       JSON        NOT NULL,
		created_by CHAR(36)    NULL,
		created_at DATETIME    NOT NULL,
		updated_at DATETIME    NOT NULL,
		PRIMARY KEY (kind, id),
		KEY idx_resources_kind_created (kind, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the service needs when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
