package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/db/models"
	"github.com/crawdale/hotel/internal/guard"
	"github.com/crawdale/hotel/internal/services/rooms"
	"go.uber.org/zap"
)

const roomsPath = "/admin/rooms"

type roomsPage struct {
	Rooms       []models.Room
	Statuses    []string
	Filter      string
	FilterError string
	Error       string
}

// handleRoomsPage lists rooms newest first with create, edit, toggle and delete forms.
// It is mounted behind the room-manager layout guard, which has already put the
// principal on the context.
func (h *handlers) handleRoomsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.GetUserFromContext(ctx)
	if !ok {
		http.Redirect(w, r, auth.WithNext(guard.LoginPath, roomsPath), http.StatusSeeOther)
		return
	}

	page := roomsPage{
		Statuses: models.RoomStatuses,
		Filter:   r.URL.Query().Get("filter"),
	}

	list, err := h.rooms.List(ctx, page.Filter)
	if errors.Is(err, rooms.ErrInvalidFilter) {
		page.FilterError = err.Error()
		list, err = h.rooms.List(ctx, "")
	}

	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		h.logger.Error("list rooms", zap.Error(err))
		page.Error = err.Error()
	}
	page.Rooms = list

	h.views.Render(w, status, pageRooms, viewFor(principal, navAdmin, page))
}

type roomCommand func(ctx context.Context, values url.Values) error

// roomCommandHandler re-runs the guard, then hands the posted form to cmd.
// Success redirects back to the rooms list so the page re-reads from storage.
func (h *handlers) roomCommandHandler(name string, cmd roomCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorized, ok := h.guard.Require(w, r, auth.RoomManagers, roomsPath)
		if !ok {
			return
		}
		principal := authorized.Principal()

		if err := r.ParseForm(); err != nil {
			h.renderError(w, principal, http.StatusBadRequest, err)
			return
		}

		if err := cmd(authorized.WithContext(r.Context()), r.PostForm); err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				h.logger.Error("room command failed", zap.String("command", name), zap.Error(err))
			} else {
				h.logger.Debug("room command rejected", zap.String("command", name), zap.Error(err))
			}
			h.renderError(w, principal, status, err)
			return
		}

		http.Redirect(w, r, roomsPath, http.StatusSeeOther)
	}
}

func (h *handlers) createRoom(ctx context.Context, values url.Values) error {
	_, err := h.rooms.Create(ctx, values)
	return err
}

func (h *handlers) renderError(w http.ResponseWriter, principal auth.AuthenticatedPrincipal, status int, err error) {
	page := errorPage{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    err.Error(),
		Back:       roomsPath,
	}
	h.views.Render(w, status, pageError, viewFor(principal, navAdmin, page))
}
