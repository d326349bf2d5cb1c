package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/online-payments/internal/checkout"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// Handler renders the shopper-facing pages that host the Drop-in.
type Handler struct {
	ClientKey string
	// Environment is the Drop-in environment name, "test" or "live".
	Environment string
}

type pageData struct {
	Type        string
	ClientKey   string
	Environment string
	Outcome     checkout.Outcome
	Reason      string
}

// Routes mounts the pages and their static assets on r.
func (h Handler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/preview", h.Preview)
	r.Get("/checkout", h.Checkout)
	r.Get("/result/{type}", h.Result)
	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
}

func (h Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index.html", pageData{})
}

func (h Handler) Preview(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "preview.html", pageData{Type: r.URL.Query().Get("type")})
}

func (h Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "checkout.html", pageData{
		Type:        r.URL.Query().Get("type"),
		ClientKey:   h.ClientKey,
		Environment: h.environment(),
	})
}

func (h Handler) Result(w http.ResponseWriter, r *http.Request) {
	outcome := checkout.Outcome(chi.URLParam(r, "type"))
	switch outcome {
	case checkout.OutcomeSuccess, checkout.OutcomePending, checkout.OutcomeFailed, checkout.OutcomeError:
	default:
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "result.html", pageData{Outcome: outcome, Reason: r.URL.Query().Get("reason")})
}

func (h Handler) environment() string {
	if h.Environment == "" {
		return "test"
	}
	return strings.ToLower(h.Environment)
}

func (h Handler) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("render page")
	}
}
