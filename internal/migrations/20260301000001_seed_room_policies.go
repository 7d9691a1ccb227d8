package migrations

import (
	"context"
	"fmt"

	"github.com/crawdale/hotel/internal/auth"
	casbinbunadapter "github.com/crawdale/hotel/internal/auth/bunadapter"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260301000001, down_20260301000001)
}

// defaultRoomPolicies grants staff and admin full access to rooms. Guests get nothing.
func defaultRoomPolicies() []casbinbunadapter.CasbinRule {
	var rules []casbinbunadapter.CasbinRule
	for _, role := range []auth.Role{auth.RoleStaff, auth.RoleAdmin} {
		for _, action := range auth.RoomActions {
			rules = append(rules, casbinbunadapter.CasbinRule{
				Ptype: "p",
				V0:    auth.RoleSubject(role),
				V1:    auth.ObjectRooms,
				V2:    action,
			})
		}
	}
	return rules
}

// up_20260301000001 seeds the row-level policy for the rooms table
func up_20260301000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] seeding room policies...")

	rules := defaultRoomPolicies()
	if _, err := db.NewInsert().Model(&rules).On("CONFLICT (ptype, v0, v1, v2, v3, v4, v5) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("seed casbin policies: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20260301000001 removes the seeded room policies
func down_20260301000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] removing room policies...")

	if _, err := db.NewDelete().
		Model((*casbinbunadapter.CasbinRule)(nil)).
		Where("ptype = ?", "p").
		Where("v1 = ?", auth.ObjectRooms).
		Exec(ctx); err != nil {
		return fmt.Errorf("remove casbin policies: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
