package profiles

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/config"
	"github.com/crawdale/hotel/internal/db/bunx"
	"github.com/crawdale/hotel/internal/db/models"
	"github.com/crawdale/hotel/internal/repository"
	"github.com/crawdale/hotel/internal/services/identity"
	"github.com/spf13/cobra"
)

var (
	emailFlag          string
	roleFlag           string
	revokeSessionsFlag bool
)

var setRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Assign a role to a user, creating the identity if needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}
		if roleFlag == "" {
			return fmt.Errorf("--role flag is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		result, err := SetRole(cmd.Context(),
			repository.NewBunIdentityRepository(db),
			repository.NewBunProfileRepository(db),
			emailFlag, roleFlag)
		if err != nil {
			return err
		}

		if revokeSessionsFlag && !result.IdentityCreated {
			if err := repository.NewBunSessionRepository(db).RevokeByIdentity(cmd.Context(), result.IdentityID); err != nil {
				return fmt.Errorf("failed to revoke sessions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked active sessions for %s\n", result.Email)
		}

		verb := "Updated"
		if result.IdentityCreated {
			verb = "Created"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s) with role %s\n", verb, result.Email, result.IdentityID, result.Role)
		return nil
	},
}

// SetRoleResult describes the profile written by SetRole.
type SetRoleResult struct {
	IdentityID      string
	Email           string
	Role            auth.Role
	IdentityCreated bool
}

// SetRole provisions role for the identity with email. An identity that has
// never signed in is created so the role is in place for its first session.
func SetRole(ctx context.Context, identities repository.IdentityRepository, profiles repository.ProfileRepository, email, role string) (*SetRoleResult, error) {
	addr, err := mail.ParseAddress(identity.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("invalid email format: %w", err)
	}
	email = addr.Address

	role = strings.ToLower(strings.TrimSpace(role))
	if !auth.IsValidRole(role) {
		valid := make([]string, len(auth.AllRoles))
		for i, r := range auth.AllRoles {
			valid[i] = string(r)
		}
		return nil, fmt.Errorf("invalid role %q\nValid roles are: %s", role, strings.Join(valid, ", "))
	}

	result := &SetRoleResult{Email: email, Role: auth.Role(role)}

	ident, err := identities.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		ident = &models.Identity{Email: email}
		if err := identities.Create(ctx, ident); err != nil {
			return nil, fmt.Errorf("failed to create identity: %w", err)
		}
		result.IdentityCreated = true
	default:
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	result.IdentityID = ident.ID

	if err := profiles.Upsert(ctx, &models.Profile{ID: ident.ID, Role: role}); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return result, nil
}
