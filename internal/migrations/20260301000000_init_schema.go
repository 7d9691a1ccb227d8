package migrations

import (
	"context"
	"fmt"

	casbinbunadapter "github.com/crawdale/hotel/internal/auth/bunadapter"
	"github.com/crawdale/hotel/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260301000000, down_20260301000000)
}

const createRoomsTable = `
CREATE TABLE IF NOT EXISTS rooms (
	id               VARCHAR(36) PRIMARY KEY,
	hotel_id         VARCHAR(36),
	room_number      VARCHAR NOT NULL,
	room_type        VARCHAR NOT NULL,
	capacity         INTEGER NOT NULL DEFAULT 2 CHECK (capacity > 0),
	base_price_cents BIGINT NOT NULL DEFAULT 0 CHECK (base_price_cents >= 0),
	status           VARCHAR NOT NULL DEFAULT 'available'
	                 CHECK (status IN ('available', 'maintenance', 'out_of_service')),
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// up_20260301000000 creates identity, profile, session, room and policy tables
func up_20260301000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating identity tables...")

	if _, err := db.NewCreateTable().Model((*models.Identity)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create identities: %w", err)
	}

	q := db.NewCreateTable().Model((*models.Profile)(nil)).IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`(id) REFERENCES identities(id) ON DELETE CASCADE`)
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("create profiles: %w", err)
	}

	q = db.NewCreateTable().Model((*models.Session)(nil)).IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`(identity_id) REFERENCES identities(id) ON DELETE CASCADE`)
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("create sessions: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_sessions_identity_id ON sessions(identity_id)`); err != nil {
		return fmt.Errorf("create sessions identity index: %w", err)
	}

	if IsPostgreSQL(db) {
		if _, err := db.ExecContext(ctx, `ALTER TABLE profiles ADD CONSTRAINT fk_profiles_identity FOREIGN KEY (id) REFERENCES identities(id) ON DELETE CASCADE`); err != nil {
			return fmt.Errorf("add profiles FK: %w", err)
		}
		if _, err := db.ExecContext(ctx, `ALTER TABLE profiles ADD CONSTRAINT chk_profiles_role CHECK (role IN ('guest', 'staff', 'admin'))`); err != nil {
			return fmt.Errorf("add profiles role check: %w", err)
		}
		if _, err := db.ExecContext(ctx, `ALTER TABLE sessions ADD CONSTRAINT fk_sessions_identity FOREIGN KEY (identity_id) REFERENCES identities(id) ON DELETE CASCADE`); err != nil {
			return fmt.Errorf("add sessions FK: %w", err)
		}
	}

	if _, err := db.NewCreateTable().Model((*models.ConsumedLoginCode)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create consumed_login_codes: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_consumed_login_codes_exp ON consumed_login_codes(exp)`); err != nil {
		return fmt.Errorf("create consumed_login_codes exp index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating rooms table...")
	if _, err := db.ExecContext(ctx, createRoomsTable); err != nil {
		return fmt.Errorf("create rooms: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_rooms_created_at ON rooms(created_at)`); err != nil {
		return fmt.Errorf("create rooms created_at index: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_rooms_hotel_id ON rooms(hotel_id)`); err != nil {
		return fmt.Errorf("create rooms hotel_id index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating casbin_rules table...")
	if _, err := db.NewCreateTable().Model((*casbinbunadapter.CasbinRule)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create casbin_rules: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260301000000 drops all tables
func down_20260301000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping all tables...")

	tables := []string{
		"casbin_rules",
		"rooms",
		"consumed_login_codes",
		"sessions",
		"profiles",
		"identities",
	}
	for _, table := range tables {
		if err := dropTable(ctx, db, table); err != nil {
			return err
		}
	}

	fmt.Println(" OK")
	return nil
}
