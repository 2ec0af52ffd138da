package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN
			CREATE TYPE user_role AS ENUM ('STUDENT', 'COMPANY', 'SCHOOL_ADMIN', 'TEACHER');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'job_type') THEN
			CREATE TYPE job_type AS ENUM ('INTERNSHIP', 'APPRENTICE', 'FULL_TIME', 'PART_TIME', 'FREELANCE');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'application_status') THEN
			CREATE TYPE application_status AS ENUM ('APPLIED', 'VIEWED', 'IN_PROGRESS', 'REJECTED', 'HIRED');
		END IF;
	END $$`,

	`CREATE TABLE IF NOT EXISTS identities (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		raw_user_meta_data JSONB NOT NULL DEFAULT '{}',
		email_confirmed_at TIMESTAMP WITH TIME ZONE,
		confirmation_token_hash VARCHAR(255),
		confirmation_sent_at TIMESTAMP WITH TIME ZONE,
		last_sign_in_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_identities_email_lower ON identities (LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		identity_id UUID NOT NULL REFERENCES identities(id) ON DELETE CASCADE,
		refresh_token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		refreshed_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE REFERENCES identities(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		role user_role NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS school_profiles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE REFERENCES identities(id) ON DELETE CASCADE,
		city VARCHAR(255) NOT NULL,
		state VARCHAR(2) NOT NULL,
		about TEXT,
		address TEXT,
		website VARCHAR(500),
		logo_url VARCHAR(500),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS student_profiles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE REFERENCES identities(id) ON DELETE CASCADE,
		bio TEXT,
		school_id UUID REFERENCES school_profiles(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS company_profiles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE REFERENCES identities(id) ON DELETE CASCADE,
		company_name VARCHAR(255) NOT NULL,
		description TEXT,
		sector VARCHAR(255),
		city VARCHAR(255) NOT NULL,
		state VARCHAR(2) NOT NULL,
		website VARCHAR(500),
		logo_url VARCHAR(500),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// Defined for completeness; sign-up never writes to it.
	`CREATE TABLE IF NOT EXISTS teacher_profiles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE REFERENCES identities(id) ON DELETE CASCADE,
		school_id UUID NOT NULL REFERENCES school_profiles(id) ON DELETE CASCADE,
		subject VARCHAR(255),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_identity_id ON sessions(identity_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_identities_confirmation_token ON identities(confirmation_token_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_student_profiles_school_id ON student_profiles(school_id)`,
	`CREATE INDEX IF NOT EXISTS idx_teacher_profiles_school_id ON teacher_profiles(school_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
