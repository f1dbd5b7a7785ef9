package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"community-service/internal/logger"
)

func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
		`CREATE TABLE IF NOT EXISTS churches (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
			)`,
		`CREATE TABLE IF NOT EXISTS services (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			church_id UUID NOT NULL REFERENCES churches(id) ON DELETE CASCADE,
			name TEXT NOT NULL
			)`,
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			avatar_url TEXT,
			roles TEXT[] NOT NULL DEFAULT ARRAY['user'],
			church_id UUID REFERENCES churches(id) ON DELETE SET NULL,
			service_id UUID REFERENCES services(id) ON DELETE SET NULL,
			newcomer BOOLEAN NOT NULL DEFAULT FALSE,
			onboarding_complete BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW()
			)`,
		`CREATE TABLE IF NOT EXISTS friendships (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			friend_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status TEXT NOT NULL CHECK (status IN ('pending','accepted','rejected','blocked')),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (user_id, friend_id)
			)`,
		`CREATE TABLE IF NOT EXISTS groups (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			church_id UUID NOT NULL REFERENCES churches(id) ON DELETE CASCADE,
			service_id UUID REFERENCES services(id) ON DELETE SET NULL,
			leader_id UUID REFERENCES users(id) ON DELETE SET NULL,
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','denied','closed','active')),
			max_members INT,
			created_at TIMESTAMPTZ DEFAULT NOW()
			)`,
		`CREATE TABLE IF NOT EXISTS group_memberships (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('member','leader','admin')),
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('active','inactive','pending')),
			journey_status INT CHECK (journey_status BETWEEN 1 AND 3),
			joined_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (group_id, user_id)
			)`,
		`CREATE TABLE IF NOT EXISTS group_membership_notes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			membership_id UUID NOT NULL REFERENCES group_memberships(id) ON DELETE CASCADE,
			action TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			created_by UUID REFERENCES users(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
			)`,
		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			church_id UUID NOT NULL REFERENCES churches(id) ON DELETE CASCADE,
			group_id UUID REFERENCES groups(id) ON DELETE SET NULL,
			created_by UUID REFERENCES users(id) ON DELETE SET NULL,
			title TEXT NOT NULL,
			starts_at TIMESTAMPTZ NOT NULL
			)`,
		`CREATE TABLE IF NOT EXISTS referrals (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			referrer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			referred_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			group_id UUID REFERENCES groups(id) ON DELETE SET NULL,
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW()
			)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			data JSONB NOT NULL DEFAULT '{}'::jsonb,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			action_url TEXT,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW()
			)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id) WHERE read = FALSE`,
		`CREATE INDEX IF NOT EXISTS idx_memberships_user ON group_memberships (user_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	logger.Info("database migrations applied", "count", len(queries))
	return nil
}
