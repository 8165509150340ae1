package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'freight_status') THEN
			CREATE TYPE freight_status AS ENUM (
				'NEW', 'APPROVED', 'OPEN', 'ACCEPTED', 'LOADING', 'LOADED', 'IN_TRANSIT',
				'DELIVERED_PENDING_CONFIRMATION', 'DELIVERED', 'COMPLETED', 'CANCELLED'
			);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_status') THEN
			CREATE TYPE payment_status AS ENUM (
				'proposed', 'paid_by_producer', 'confirmed_by_driver', 'completed',
				'rejected', 'cancelled', 'disputed'
			);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'service_status') THEN
			CREATE TYPE service_status AS ENUM (
				'OPEN', 'ACCEPTED', 'ON_THE_WAY', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED'
			);
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS freights (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		status freight_status NOT NULL DEFAULT 'NEW',
		total_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		required_units INTEGER NOT NULL DEFAULT 1 CHECK (required_units >= 1),
		producer_id UUID NOT NULL,
		driver_id UUID,
		carrier_id UUID,
		cargo TEXT NOT NULL DEFAULT '',
		origin TEXT NOT NULL DEFAULT '',
		destination TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_freights_status ON freights (status);`,
	`CREATE TABLE IF NOT EXISTS freight_assignments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		freight_id UUID NOT NULL REFERENCES freights(id) ON DELETE CASCADE,
		driver_id UUID NOT NULL,
		agreed_unit_price NUMERIC(18,2) NOT NULL CHECK (agreed_unit_price > 0),
		status freight_status NOT NULL DEFAULT 'ACCEPTED',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_freight_assignments_driver ON freight_assignments (freight_id, driver_id);`,
	`CREATE TABLE IF NOT EXISTS freight_status_history (
		id BIGSERIAL PRIMARY KEY,
		freight_id UUID NOT NULL REFERENCES freights(id) ON DELETE CASCADE,
		from_status freight_status NOT NULL,
		to_status freight_status NOT NULL,
		actor_id UUID,
		actor_role VARCHAR(32) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS service_requests (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		service_type VARCHAR(32) NOT NULL,
		status service_status NOT NULL DEFAULT 'OPEN',
		client_id UUID,
		provider_id UUID,
		price NUMERIC(18,2) NOT NULL DEFAULT 0,
		origin TEXT NOT NULL DEFAULT '',
		destination TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_service_requests_open ON service_requests (created_at) WHERE status = 'OPEN';`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		freight_id UUID REFERENCES freights(id) ON DELETE CASCADE,
		assignment_id UUID REFERENCES freight_assignments(id) ON DELETE CASCADE,
		service_id UUID REFERENCES service_requests(id) ON DELETE CASCADE,
		version INTEGER NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		status payment_status NOT NULL,
		payer_id UUID NOT NULL,
		payee_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (num_nonnulls(freight_id, service_id) = 1)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_payments_version ON payments (
		COALESCE(freight_id, service_id),
		COALESCE(assignment_id, '00000000-0000-0000-0000-000000000000'::uuid),
		version
	);`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		rater_id UUID NOT NULL,
		rated_id UUID NOT NULL,
		freight_id UUID REFERENCES freights(id) ON DELETE CASCADE,
		service_id UUID REFERENCES service_requests(id) ON DELETE CASCADE,
		score SMALLINT NOT NULL CHECK (score BETWEEN 1 AND 5),
		comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (num_nonnulls(freight_id, service_id) = 1)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_ratings_freight_rater ON ratings (freight_id, rater_id) WHERE freight_id IS NOT NULL;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_ratings_service_rater ON ratings (service_id, rater_id) WHERE service_id IS NOT NULL;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
