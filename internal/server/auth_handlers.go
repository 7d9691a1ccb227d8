package server

import (
	"errors"
	"net/http"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/guard"
	"github.com/crawdale/hotel/internal/services/identity"
	"github.com/crawdale/hotel/internal/telemetry"
	"go.uber.org/zap"
)

const (
	callbackPath = "/auth/callback"

	defaultLoginNext    = "/admin"
	defaultCallbackNext = "/dashboard"

	magicLinkSentMessage = "Magic link sent (check inbox/spam/quarantine)."
	magicLinkFailMessage = "Failed to send magic link."
)

// Callback error codes carried back to the login page.
const (
	loginErrorMissingCode = "missing_code"
	loginErrorAuthFailed  = "auth_failed"
)

var loginErrorMessages = map[string]string{
	loginErrorMissingCode: "The sign-in link is missing its code. Request a new link.",
	loginErrorAuthFailed:  "The sign-in link is invalid or has already been used. Request a new link.",
}

type loginPage struct {
	Next    string
	Email   string
	Message string
	Error   string
}

func loginErrorRedirect(next, code string) string {
	return auth.WithNext(guard.LoginPath, next) + "&error=" + code
}

// handleLoginPage renders the email form. next defaults to /admin.
func (h *handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := loginPage{
		Next:  auth.SafeNext(q.Get("next"), defaultLoginNext),
		Error: loginErrorMessages[q.Get("error")],
	}
	h.views.Render(w, http.StatusOK, pageLogin, view{Data: page})
}

// handleLoginSubmit asks the identity provider to email a magic link whose
// callback returns the user to next.
func (h *handlers) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.Render(w, http.StatusBadRequest, pageLogin, view{Data: loginPage{Next: defaultLoginNext, Error: "Invalid form submission."}})
		return
	}

	page := loginPage{
		Next:  auth.SafeNext(r.PostFormValue("next"), defaultLoginNext),
		Email: identity.NormalizeEmail(r.PostFormValue("email")),
	}
	if page.Email == "" {
		page.Error = "Enter your email address."
		h.views.Render(w, http.StatusBadRequest, pageLogin, view{Data: page})
		return
	}

	redirectTo := h.serverURL + auth.WithNext(callbackPath, page.Next)
	err := h.identity.SignInWithEmail(r.Context(), page.Email, redirectTo)
	h.recordAuth(r, telemetry.AuthStepMagicLink, err == nil)

	switch {
	case err == nil:
		page.Message = magicLinkSentMessage
		h.views.Render(w, http.StatusOK, pageLogin, view{Data: page})
	case errors.Is(err, identity.ErrInvalidEmail):
		page.Error = "That email address is not valid."
		h.views.Render(w, http.StatusBadRequest, pageLogin, view{Data: page})
	default:
		h.logger.Error("send magic link", zap.Error(err))
		page.Error = magicLinkFailMessage
		h.views.Render(w, http.StatusBadGateway, pageLogin, view{Data: page})
	}
}

// handleCallback exchanges the code for a session and sets the session cookie.
// next defaults to /dashboard.
func (h *handlers) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	next := auth.SafeNext(q.Get("next"), defaultCallbackNext)

	code := q.Get("code")
	if code == "" {
		http.Redirect(w, r, loginErrorRedirect(next, loginErrorMissingCode), http.StatusSeeOther)
		return
	}

	session, err := h.identity.ExchangeAuthCode(r.Context(), code, identity.ClientInfo{
		UserAgent: r.UserAgent(),
		IPAddress: r.RemoteAddr,
	})
	h.recordAuth(r, telemetry.AuthStepExchange, err == nil)
	if err != nil {
		h.logger.Info("magic link exchange failed", zap.Error(err))
		http.Redirect(w, r, loginErrorRedirect(next, loginErrorAuthFailed), http.StatusSeeOther)
		return
	}

	auth.SetSessionCookie(w, r, session.Token, session.ExpiresAt, h.cookieSecure)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// handleLogout revokes the server-side session and clears the cookie.
func (h *handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context(), auth.SessionTokenFromRequest(r)); err != nil {
		h.logger.Error("sign out", zap.Error(err))
	}
	auth.ClearSessionCookie(w, r, h.cookieSecure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handlers) recordAuth(r *http.Request, step string, success bool) {
	if h.authMetrics != nil {
		h.authMetrics.RecordAuth(r.Context(), step, success)
	}
}
