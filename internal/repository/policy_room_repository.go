package repository

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/db/models"
	"go.uber.org/zap"
)

// PolicyRoomRepository enforces row-level policy on every room operation
// before delegating to the wrapped repository. The caller's role is read from
// the principal on the context; a context without a principal is denied.
type PolicyRoomRepository struct {
	inner    RoomRepository
	enforcer casbin.IEnforcer
	logger   *zap.Logger
}

// NewPolicyRoomRepository wraps inner with Casbin checks.
func NewPolicyRoomRepository(inner RoomRepository, enforcer casbin.IEnforcer, logger *zap.Logger) *PolicyRoomRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyRoomRepository{inner: inner, enforcer: enforcer, logger: logger}
}

func (r *PolicyRoomRepository) authorize(ctx context.Context, action string) error {
	principal, ok := auth.GetUserFromContext(ctx)
	if !ok {
		return fmt.Errorf("%s %s: no principal: %w", action, auth.ObjectRooms, ErrPermissionDenied)
	}

	allowed, err := auth.Authorize(r.enforcer, principal.Role, auth.ObjectRooms, action)
	if err != nil {
		r.logger.Error("room policy evaluation failed", zap.String("action", action), zap.Error(err))
		return fmt.Errorf("%s %s: %w", action, auth.ObjectRooms, ErrPermissionDenied)
	}
	if !allowed {
		r.logger.Debug("room policy denied",
			zap.String("action", action),
			zap.String("role", principal.Role.String()),
			zap.String("identity_id", principal.IdentityID))
		return fmt.Errorf("%s %s as %s: %w", action, auth.ObjectRooms, principal.Role, ErrPermissionDenied)
	}
	return nil
}

// List returns rooms visible to the caller
func (r *PolicyRoomRepository) List(ctx context.Context, filter RoomFilter) ([]models.Room, error) {
	if err := r.authorize(ctx, auth.RoomRead); err != nil {
		return nil, err
	}
	return r.inner.List(ctx, filter)
}

// GetByID retrieves a room visible to the caller
func (r *PolicyRoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	if err := r.authorize(ctx, auth.RoomRead); err != nil {
		return nil, err
	}
	return r.inner.GetByID(ctx, id)
}

// Create inserts a room if the caller may create rooms
func (r *PolicyRoomRepository) Create(ctx context.Context, room *models.Room) error {
	if err := r.authorize(ctx, auth.RoomCreate); err != nil {
		return err
	}
	return r.inner.Create(ctx, room)
}

// Update applies a sparse patch if the caller may update rooms
func (r *PolicyRoomRepository) Update(ctx context.Context, id string, patch models.RoomPatch) error {
	if err := r.authorize(ctx, auth.RoomUpdate); err != nil {
		return err
	}
	return r.inner.Update(ctx, id, patch)
}

// Delete removes a room if the caller may delete rooms
func (r *PolicyRoomRepository) Delete(ctx context.Context, id string) error {
	if err := r.authorize(ctx, auth.RoomDelete); err != nil {
		return err
	}
	return r.inner.Delete(ctx, id)
}

// ToggleActive flips is_active if the caller may update rooms
func (r *PolicyRoomRepository) ToggleActive(ctx context.Context, id string) error {
	if err := r.authorize(ctx, auth.RoomUpdate); err != nil {
		return err
	}
	return r.inner.ToggleActive(ctx, id)
}
