package rooms

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/db/models"
	"github.com/crawdale/hotel/internal/repository"
	"github.com/crawdale/hotel/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "hotel/services/rooms"

// Service handles the admin room commands. Every call checks the principal on
// ctx against auth.RoomManagers and then issues exactly one repository call.
type Service struct {
	rooms    repository.RoomRepository
	filters  *FilterCache
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService constructs a Service. filters may be nil.
func NewService(rooms repository.RoomRepository, filters *FilterCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		rooms:    rooms,
		filters:  filters,
		validate: NewValidator(),
		logger:   logger,
	}
}

func (s *Service) requireManager(ctx context.Context, action string) (auth.AuthenticatedPrincipal, error) {
	principal, ok := auth.GetUserFromContext(ctx)
	if !ok || !auth.RoleIn(principal.Role, auth.RoomManagers) {
		return principal, fmt.Errorf("%s room: %w", action, repository.ErrPermissionDenied)
	}
	return principal, nil
}

func principalAttrs(p auth.AuthenticatedPrincipal) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(telemetry.AttrPrincipalID, p.IdentityID),
		attribute.String(telemetry.AttrPrincipalRole, string(p.Role)),
	}
}

// List returns all rooms newest first. A non-blank filter is a go-bexpr
// expression over room fields, e.g. `status == "available" and capacity > 2`.
func (s *Service) List(ctx context.Context, filter string) ([]models.Room, error) {
	if _, err := s.requireManager(ctx, auth.RoomRead); err != nil {
		return nil, err
	}

	var match func(models.Room) bool
	if strings.TrimSpace(filter) != "" {
		eval, err := s.filters.Evaluator(filter)
		if err != nil {
			return nil, err
		}
		match = func(room models.Room) bool {
			ok, err := eval.Evaluate(room.Attributes())
			return err == nil && ok
		}
	}

	rooms, err := s.rooms.List(ctx, repository.RoomFilter{})
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	if match == nil {
		return rooms, nil
	}

	filtered := rooms[:0]
	for _, room := range rooms {
		if match(room) {
			filtered = append(filtered, room)
		}
	}
	return filtered, nil
}

// Create inserts a room from the submitted form.
func (s *Service) Create(ctx context.Context, values url.Values) (*models.Room, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "rooms.Create", attribute.String(telemetry.AttrRoomAction, auth.RoomCreate))
	defer span.End()

	principal, err := s.requireManager(ctx, auth.RoomCreate)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(principalAttrs(principal)...)

	form, err := DecodeForm(values)
	if err != nil {
		return nil, err
	}
	room, err := form.ToRoom(s.validate)
	if err != nil {
		return nil, err
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.logger.Info("room created",
		zap.String("room_id", room.ID),
		zap.String("room_number", room.RoomNumber),
		zap.String("identity_id", principal.IdentityID))
	return room, nil
}

// Update applies the fields present in the form to the room named by its id field.
// A form carrying nothing but the id writes nothing.
func (s *Service) Update(ctx context.Context, values url.Values) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "rooms.Update", attribute.String(telemetry.AttrRoomAction, auth.RoomUpdate))
	defer span.End()

	principal, err := s.requireManager(ctx, auth.RoomUpdate)
	if err != nil {
		return err
	}
	span.SetAttributes(principalAttrs(principal)...)

	form, err := DecodeForm(values)
	if err != nil {
		return err
	}
	id, err := form.RoomID()
	if err != nil {
		return err
	}
	patch, err := form.ToPatch(s.validate)
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.String(telemetry.AttrRoomID, id))
	if err := s.rooms.Update(ctx, id, patch); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("update room %s: %w", id, err)
	}

	s.logger.Info("room updated",
		zap.String("room_id", id),
		zap.Int("fields", len(patch.Fields())),
		zap.String("identity_id", principal.IdentityID))
	return nil
}

// Delete removes the room named by the id field.
func (s *Service) Delete(ctx context.Context, values url.Values) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "rooms.Delete", attribute.String(telemetry.AttrRoomAction, auth.RoomDelete))
	defer span.End()

	principal, err := s.requireManager(ctx, auth.RoomDelete)
	if err != nil {
		return err
	}
	span.SetAttributes(principalAttrs(principal)...)

	form, err := DecodeForm(values)
	if err != nil {
		return err
	}
	id, err := form.RoomID()
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.String(telemetry.AttrRoomID, id))
	if err := s.rooms.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("delete room %s: %w", id, err)
	}

	s.logger.Info("room deleted", zap.String("room_id", id), zap.String("identity_id", principal.IdentityID))
	return nil
}

// Toggle flips the active flag of the room named by the id field.
func (s *Service) Toggle(ctx context.Context, values url.Values) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "rooms.Toggle", attribute.String(telemetry.AttrRoomAction, auth.RoomUpdate))
	defer span.End()

	principal, err := s.requireManager(ctx, auth.RoomUpdate)
	if err != nil {
		return err
	}
	span.SetAttributes(principalAttrs(principal)...)

	form, err := DecodeForm(values)
	if err != nil {
		return err
	}
	id, err := form.RoomID()
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.String(telemetry.AttrRoomID, id))
	if err := s.rooms.ToggleActive(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("toggle room %s: %w", id, err)
	}

	s.logger.Info("room active flag toggled", zap.String("room_id", id), zap.String("identity_id", principal.IdentityID))
	return nil
}
