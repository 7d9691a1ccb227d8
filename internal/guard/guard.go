package guard

import (
	"context"
	"net/http"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/services/identity"
	"go.uber.org/zap"
)

// Well-known redirect destinations.
const (
	LoginPath     = "/auth/login"
	ForbiddenPath = "/403"
)

// Reason explains a denial.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Decision is the outcome of EnsureRole: Authorized or Denied.
type Decision interface {
	isDecision()
}

// Authorized carries the caller's identity and resolved role.
type Authorized struct {
	Identity identity.Identity
	Role     auth.Role
}

// Denied carries where the caller must be sent instead.
type Denied struct {
	Redirect string
	Reason   Reason
}

func (Authorized) isDecision() {}
func (Denied) isDecision()     {}

// Principal converts the decision into the principal stored on the request context.
func (a Authorized) Principal() auth.AuthenticatedPrincipal {
	return auth.AuthenticatedPrincipal{
		IdentityID: a.Identity.ID,
		Email:      a.Identity.Email,
		SessionID:  a.Identity.SessionID,
		Role:       a.Role,
	}
}

// WithContext stores the principal on ctx for row-level policy checks.
func (a Authorized) WithContext(ctx context.Context) context.Context {
	return auth.SetUserContext(ctx, a.Principal())
}

// DecisionRecorder observes guard outcomes.
type DecisionRecorder interface {
	RecordGuardDecision(ctx context.Context, outcome string)
}

// Options configures a Guard.
type Options struct {
	Sessions SessionResolver
	Roles    RoleResolver
	// DeniedPath is where authenticated callers without an allowed role go.
	// Defaults to ForbiddenPath.
	DeniedPath string
	Recorder   DecisionRecorder
	Logger     *zap.Logger
}

// Guard gates pages and form commands by role. It holds no per-request state
// and never caches a decision.
type Guard struct {
	sessions   SessionResolver
	roles      RoleResolver
	deniedPath string
	recorder   DecisionRecorder
	logger     *zap.Logger
}

// New creates a Guard.
func New(opts Options) *Guard {
	g := &Guard{
		sessions:   opts.Sessions,
		roles:      opts.Roles,
		deniedPath: opts.DeniedPath,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
	}
	if g.deniedPath == "" {
		g.deniedPath = ForbiddenPath
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// EnsureRole resolves the caller and checks the role against allowed.
// returnPath is where the caller should come back to after signing in.
func (g *Guard) EnsureRole(r *http.Request, allowed []auth.Role, returnPath string) Decision {
	ident, ok := g.sessions.ResolveSession(r)
	if !ok {
		g.record(r.Context(), "unauthenticated")
		return Denied{Redirect: auth.WithNext(LoginPath, returnPath), Reason: ReasonUnauthenticated}
	}

	role := g.roles.ResolveRole(r.Context(), ident.ID)
	if !auth.RoleIn(role, allowed) {
		g.logger.Debug("role not allowed",
			zap.String("identity_id", ident.ID),
			zap.String("role", role.String()),
			zap.String("path", returnPath))
		g.record(r.Context(), "forbidden")
		return Denied{Redirect: auth.WithNext(g.deniedPath, returnPath), Reason: ReasonForbidden}
	}

	g.record(r.Context(), "authorized")
	return Authorized{Identity: ident, Role: role}
}

// Require runs EnsureRole and, on denial, writes a 303 redirect.
// The boolean is false when the caller has been redirected.
func (g *Guard) Require(w http.ResponseWriter, r *http.Request, allowed []auth.Role, returnPath string) (Authorized, bool) {
	switch d := g.EnsureRole(r, allowed, returnPath).(type) {
	case Authorized:
		return d, true
	case Denied:
		http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
		return Authorized{}, false
	default:
		http.Error(w, "unexpected guard decision", http.StatusInternalServerError)
		return Authorized{}, false
	}
}

// Middleware gates every request under a route group (a layout guard).
// The return path is the request path. The principal is stored on the context.
func (g *Guard) Middleware(allowed []auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorized, ok := g.Require(w, r, allowed, r.URL.Path)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(authorized.WithContext(r.Context())))
		})
	}
}

// Optional resolves the caller without requiring a session, for public pages.
func (g *Guard) Optional(r *http.Request) (identity.Identity, bool) {
	return g.sessions.ResolveSession(r)
}

func (g *Guard) record(ctx context.Context, outcome string) {
	if g.recorder != nil {
		g.recorder.RecordGuardDecision(ctx, outcome)
	}
}
