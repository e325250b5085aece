// Package web renders the dashboard, list and form pages. Forms post to the
// JSON API with fetch, so the pages themselves only read.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/writewithwrabit/calorietrack/auth"
	"github.com/writewithwrabit/calorietrack/calendar"
	"github.com/writewithwrabit/calorietrack/logging"
	"github.com/writewithwrabit/calorietrack/models"
	"github.com/writewithwrabit/calorietrack/store"
	"github.com/writewithwrabit/calorietrack/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"dashboard.html", "list.html", "form.html", "error.html"}

// Entries is the read side of the store the pages need.
type Entries interface {
	List(ctx context.Context, kind models.Kind, userID string) ([]*models.Entry, error)
	Get(ctx context.Context, kind models.Kind, userID, id string) (*models.Entry, error)
}

// Dashboard produces the chart series.
type Dashboard interface {
	Aggregate(ctx context.Context, rng calendar.Range, userID string) (*models.DailySeries, error)
}

// section describes one entry kind's pages.
type section struct {
	Kind       models.Kind
	Path       string
	Title      string
	LabelTitle string
	Noun       string
}

var sections = []section{
	{Kind: models.Intake, Path: "records", Title: "Meals", LabelTitle: "Meal", Noun: "meal"},
	{Kind: models.Exertion, Path: "exercises", Title: "Exercises", LabelTitle: "Exercise", Noun: "exercise"},
}

type Pages struct {
	entries   Entries
	dashboard Dashboard
	loc       *time.Location
	log       logging.Logger
	now       func() time.Time
	pages     map[string]*template.Template
}

// New parses every page template. Each page gets its own clone of the
// layout so their "content" blocks don't collide.
func New(entries Entries, dashboard Dashboard, loc *time.Location, logger logging.Logger) (*Pages, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	p := &Pages{
		entries:   entries,
		dashboard: dashboard,
		loc:       loc,
		log:       logger,
		now:       time.Now,
		pages:     map[string]*template.Template{},
	}

	funcs := template.FuncMap{
		"json": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			return template.JS(b), err
		},
		"inputTime": func(t time.Time) string {
			return validation.FormatDateTime(t, p.loc)
		},
		"displayTime": func(t time.Time) string {
			return t.In(p.loc).Format("2006-01-02 15:04")
		},
	}

	layout, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	for _, name := range pageNames {
		clone, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		tmpl, err := clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p.pages[name] = tmpl
	}
	return p, nil
}

// Mount registers the page routes.
func (p *Pages) Mount(router chi.Router) {
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	router.Get("/dashboard", p.HandleDashboard)
	for _, s := range sections {
		s := s
		router.Get("/"+s.Path, p.HandleList(s))
		router.Get("/"+s.Path+"/new", p.HandleForm(s, false))
		router.Get("/"+s.Path+"/{id}/edit", p.HandleForm(s, true))
	}
}

type dashboardData struct {
	Month  string
	Series *models.DailySeries
	Intake int
	Burned int
	Error  string
}

func (p *Pages) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.ForContext(r.Context())
	rng := calendar.Resolve(r.URL.Query().Get("month"), p.now().In(p.loc))

	data := dashboardData{Month: rng.MonthSelector()}
	series, err := p.dashboard.Aggregate(r.Context(), rng, userID)
	if err != nil {
		p.log.Error("dashboard failed", "error", err)
		data.Error = "Could not load dashboard data."
		p.render(w, http.StatusInternalServerError, "dashboard.html", data)
		return
	}
	data.Series = series
	data.Intake, data.Burned = series.Totals()
	p.render(w, http.StatusOK, "dashboard.html", data)
}

type listData struct {
	Section section
	Entries []*models.Entry
	Error   string
}

func (p *Pages) HandleList(s section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := auth.ForContext(r.Context())
		data := listData{Section: s}

		entries, err := p.entries.List(r.Context(), s.Kind, userID)
		if err != nil {
			p.log.Error("list failed", "kind", s.Kind, "error", err)
			data.Error = "Could not load entries."
			p.render(w, http.StatusInternalServerError, "list.html", data)
			return
		}
		data.Entries = entries
		p.render(w, http.StatusOK, "list.html", data)
	}
}

type formData struct {
	Section  section
	Entry    *models.Entry
	Editing  bool
	Action   string
	Method   string
	DateTime string
}

func (p *Pages) HandleForm(s section, editing bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := formData{
			Section:  s,
			Entry:    &models.Entry{Kind: s.Kind},
			Action:   "/api/" + s.Path,
			Method:   http.MethodPost,
			DateTime: validation.FormatDateTime(p.now(), p.loc),
		}

		if editing {
			userID, _ := auth.ForContext(r.Context())
			id := chi.URLParam(r, "id")
			entry, err := p.entries.Get(r.Context(), s.Kind, userID, id)
			if errors.Is(err, store.ErrNotFound) {
				p.render(w, http.StatusNotFound, "error.html", map[string]string{"Message": "That entry does not exist."})
				return
			}
			if err != nil {
				p.log.Error("load entry failed", "kind", s.Kind, "id", id, "error", err)
				p.render(w, http.StatusInternalServerError, "error.html", map[string]string{"Message": "Could not load the entry."})
				return
			}
			data.Entry = entry
			data.Editing = true
			data.Action = "/api/" + s.Path + "/" + entry.ID
			data.Method = http.MethodPut
			data.DateTime = validation.FormatDateTime(entry.OccurredAt, p.loc)
		}

		p.render(w, http.StatusOK, "form.html", data)
	}
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := p.pages[name]
	if !ok {
		p.log.Error("template not found", "name", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		p.log.Error("render failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
