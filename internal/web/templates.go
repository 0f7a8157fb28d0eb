package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	partials  map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		partials:  make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	// Execute the "base" template which includes the page content
	return tmpl.ExecuteTemplate(w, "base", data)
}

// RenderPartial renders a partial template (without base layout) with the given data.
func (t *Templates) RenderPartial(w io.Writer, partial string, data any) error {
	tmpl, ok := t.partials[partial]
	if !ok {
		return fmt.Errorf("partial %q not found", partial)
	}
	return tmpl.ExecuteTemplate(w, partial, data)
}

// load parses all templates from the filesystem.
func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}

	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("finding partials: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}

	// Common files to include with every page
	commonFiles := append(layouts, partials...)

	for _, page := range pages {
		name := trimExt(page)
		files := append([]string{page}, commonFiles...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	// Partials are also rendered on their own for HTMX fragments
	for _, partial := range partials {
		name := trimExt(partial)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, partial)
		if err != nil {
			return fmt.Errorf("parsing partial %s: %w", name, err)
		}
		t.partials[name] = tmpl
	}

	return nil
}

func trimExt(path string) string {
	name := filepath.Base(path)
	return name[:len(name)-len(filepath.Ext(name))]
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"clusterColor": clusterColor,

		// formatTime formats a time as "Jan 2, 2006 15:04"
		"formatTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},

		// formatValue prints a feature value without trailing zeros
		"formatValue": func(v float64) string {
			return fmt.Sprintf("%g", v)
		},

		"describe": clustering.Describe,
	}
}

// clusterColor returns an HSL color for a cluster badge.
// Ids without a description are grey.
func clusterColor(id int) template.CSS {
	if clustering.Describe(id) == clustering.UnknownDescription {
		return "hsl(0, 0%, 55%)"
	}
	hue := (35 + id*95) % 360
	return template.CSS(fmt.Sprintf("hsl(%d, 65%%, 45%%)", hue))
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title          string
	CurrentPath    string
	HistoryEnabled bool
}

// FormData holds the prediction form state.
type FormData struct {
	Features      []string // choices for the first feature
	SecondChoices []string // choices for the second feature, first excluded
	FeatureA      string
	FeatureB      string
	ValueA        float64
	ValueB        float64
	TrackID       string
	TracksEnabled bool
}

// ResultData contains a prediction result for templates.
type ResultData struct {
	ClusterID   int
	Description string
	Message     string
	FeatureA    string
	FeatureB    string
	Vector      string
	Error       string
}

// HomePageData contains data for the home page template.
type HomePageData struct {
	PageData
	Form   FormData
	Result *ResultData
}

// HistoryPageData contains data for the history page template.
type HistoryPageData struct {
	PageData
	Predictions []PredictionData
	Counts      []ClusterCountData
}

// PredictionData contains data for a single recorded prediction.
type PredictionData struct {
	ClusterID   int
	Description string
	FeatureA    string
	ValueA      float64
	FeatureB    string
	ValueB      float64
	TrackID     string
	CreatedAt   time.Time
}

// ClusterCountData contains how often a cluster was predicted.
type ClusterCountData struct {
	ClusterID   int
	Description string
	Count       int
}
