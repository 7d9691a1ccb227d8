package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig/v3"
	"github.com/crawdale/hotel/internal/auth"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page template names.
const (
	pageLanding   = "landing"
	pageLogin     = "login"
	pageForbidden = "forbidden"
	pageDashboard = "dashboard"
	pageAdmin     = "admin"
	pageRooms     = "rooms"
	pageError     = "error"
)

var pageNames = []string{pageLanding, pageLogin, pageForbidden, pageDashboard, pageAdmin, pageRooms, pageError}

// Section navigation shown in the page header.
const (
	navNone      = ""
	navDashboard = "dashboard"
	navAdmin     = "admin"
)

// view is the data handed to every page.
type view struct {
	Nav      string
	SignedIn bool
	Email    string
	Role     auth.Role
	Data     any
}

func viewFor(principal auth.AuthenticatedPrincipal, nav string, data any) view {
	return view{
		Nav:      nav,
		SignedIn: principal.IdentityID != "",
		Email:    principal.Email,
		Role:     principal.Role,
		Data:     data,
	}
}

// Renderer executes the embedded page templates. Each page is parsed together
// with the shared layout so every page can define its own "content".
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

func templateFuncs() template.FuncMap {
	funcs := sprig.FuncMap()
	funcs["dollars"] = func(cents int64) string {
		return decimal.New(cents, -2).StringFixed(2)
	}
	return funcs
}

// NewRenderer parses all page templates.
func NewRenderer(logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames)), logger: logger}
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs()).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes page with the given status. The page is executed into a buffer
// first so a template error never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, v view) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown page template", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		r.logger.Error("render page", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
