package server

import (
	"net/http"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/guard"
)

type forbiddenPage struct {
	LoginLink string
}

func (h *handlers) handleLanding(w http.ResponseWriter, r *http.Request) {
	var principal auth.AuthenticatedPrincipal
	if ident, ok := h.guard.Optional(r); ok {
		principal = auth.AuthenticatedPrincipal{IdentityID: ident.ID, Email: ident.Email, SessionID: ident.SessionID}
	}
	h.views.Render(w, http.StatusOK, pageLanding, viewFor(principal, navNone, nil))
}

func (h *handlers) handleForbidden(w http.ResponseWriter, r *http.Request) {
	var page forbiddenPage
	if next := auth.SafeNext(r.URL.Query().Get("next"), ""); next != "" {
		page.LoginLink = auth.WithNext(guard.LoginPath, next)
	}
	h.views.Render(w, http.StatusForbidden, pageForbidden, view{Data: page})
}

// handleDashboard is mounted behind the any-role layout guard, which has
// already put the principal on the context.
func (h *handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, auth.WithNext(guard.LoginPath, "/dashboard"), http.StatusSeeOther)
		return
	}
	h.views.Render(w, http.StatusOK, pageDashboard, viewFor(principal, navDashboard, nil))
}

// handleAdmin narrows the admin layout guard to admins only.
func (h *handlers) handleAdmin(w http.ResponseWriter, r *http.Request) {
	authorized, ok := h.guard.Require(w, r, auth.AdminsOnly, "/admin")
	if !ok {
		return
	}
	h.views.Render(w, http.StatusOK, pageAdmin, viewFor(authorized.Principal(), navAdmin, nil))
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
