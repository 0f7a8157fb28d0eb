package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
	"github.com/justestif/go-spotify-cluster-predictor/internal/db"
	"github.com/justestif/go-spotify-cluster-predictor/internal/model"
	"github.com/justestif/go-spotify-cluster-predictor/internal/predict"
	"github.com/justestif/go-spotify-cluster-predictor/internal/spotify"
)

// DefaultValue is the initial value of both numeric inputs on the form.
const DefaultValue = 0.5

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	service   *predict.Service
	tracks    TrackSource
	templates *Templates
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *predict.Service, tracks TrackSource, templates *Templates, logger *zap.Logger) *Handlers {
	return &Handlers{
		service:   service,
		tracks:    tracks,
		templates: templates,
		logger:    logger,
	}
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	first := clustering.FeatureSet[0]
	if name := r.URL.Query().Get("feature_a"); name != "" {
		if f, err := clustering.ParseFeature(name); err == nil {
			first = f
		}
	}

	data := HomePageData{
		PageData: h.pageData(r, "Spotify Cluster Predictor"),
		Form:     h.defaultForm(first),
	}
	h.render(w, http.StatusOK, "home", data)
}

// Predict handles the prediction form (POST /predict).
// HTMX requests get the result fragment only, always with 200 so that
// htmx swaps error messages in as well.
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	form := h.defaultForm(clustering.FeatureSet[0])
	result, status := h.predictForm(r, &form)

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := h.templates.RenderPartial(w, "result", result); err != nil {
			h.logger.Error("rendering result", zap.Error(err))
		}
		return
	}

	data := HomePageData{
		PageData: h.pageData(r, "Spotify Cluster Predictor"),
		Form:     form,
		Result:   result,
	}
	h.render(w, status, "home", data)
}

// predictForm parses the form into form and runs the prediction.
func (h *Handlers) predictForm(r *http.Request, form *FormData) (*ResultData, int) {
	if err := r.ParseForm(); err != nil {
		return &ResultData{Error: "Invalid form submission."}, http.StatusBadRequest
	}

	sel, err := parseSelection(
		r.PostForm.Get("feature_a"), r.PostForm.Get("value_a"),
		r.PostForm.Get("feature_b"), r.PostForm.Get("value_b"),
	)

	// Echo the submitted choices back into the form where they parse.
	if f, perr := clustering.ParseFeature(r.PostForm.Get("feature_a")); perr == nil {
		*form = h.defaultForm(f)
	}
	if f, perr := clustering.ParseFeature(r.PostForm.Get("feature_b")); perr == nil && f.String() != form.FeatureA {
		form.FeatureB = f.String()
	}
	if err == nil {
		form.ValueA, form.ValueB = sel.ValueA, sel.ValueB
	}
	form.TrackID = r.PostForm.Get("track_id")

	if err != nil {
		return &ResultData{Error: err.Error()}, http.StatusBadRequest
	}

	res, err := h.service.PredictWithTrack(r.Context(), sel, strings.TrimSpace(form.TrackID))
	if err != nil {
		status := errorStatus(err)
		return &ResultData{Error: userMessage(err, status)}, status
	}
	return toResultData(res), http.StatusOK
}

// predictRequest is the body of POST /api/predict.
type predictRequest struct {
	FeatureA string   `json:"feature_a"`
	ValueA   *float64 `json:"value_a"`
	FeatureB string   `json:"feature_b"`
	ValueB   *float64 `json:"value_b"`
	TrackID  string   `json:"track_id,omitempty"`
}

// predictResponse is returned by POST /api/predict.
type predictResponse struct {
	ID          string    `json:"id"`
	ClusterID   int       `json:"cluster_id"`
	Description string    `json:"description"`
	FeatureA    string    `json:"feature_a"`
	ValueA      float64   `json:"value_a"`
	FeatureB    string    `json:"feature_b"`
	ValueB      float64   `json:"value_b"`
	Features    []float64 `json:"features"`
	Message     string    `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIPredict handles JSON predictions (POST /api/predict).
func (h *Handlers) APIPredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.ValueA == nil || req.ValueB == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "value_a and value_b are required"})
		return
	}

	sel, err := selectionFromNames(req.FeatureA, *req.ValueA, req.FeatureB, *req.ValueB)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := h.service.PredictWithTrack(r.Context(), sel, strings.TrimSpace(req.TrackID))
	if err != nil {
		status := errorStatus(err)
		writeJSON(w, status, errorResponse{Error: userMessage(err, status)})
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		ID:          res.ID.String(),
		ClusterID:   res.ClusterID,
		Description: res.Description,
		FeatureA:    res.Selection.FeatureA.String(),
		ValueA:      res.Selection.ValueA,
		FeatureB:    res.Selection.FeatureB.String(),
		ValueB:      res.Selection.ValueB,
		Features:    res.Vector,
		Message:     res.Message,
	})
}

// APIFeatures lists the feature set (GET /api/features).
// With ?first=<name> it lists the choices left for the second feature.
func (h *Handlers) APIFeatures(w http.ResponseWriter, r *http.Request) {
	first := r.URL.Query().Get("first")
	if first == "" {
		writeJSON(w, http.StatusOK, map[string][]string{"features": clustering.FeatureNames()})
		return
	}

	f, err := clustering.ParseFeature(first)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"features": featureStrings(clustering.SecondChoices(f))})
}

// trackResponse is returned by GET /api/tracks/{id}/features.
type trackResponse struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Artist string             `json:"artist"`
	Values map[string]float64 `json:"values"`
}

// TrackFeatures returns a track's feature values (GET /api/tracks/{id}/features).
func (h *Handlers) TrackFeatures(w http.ResponseWriter, r *http.Request) {
	if h.tracks == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "track lookup is disabled"})
		return
	}

	id := chi.URLParam(r, "id")
	track, err := h.tracks.TrackFeatures(r.Context(), id)
	if errors.Is(err, spotify.ErrNoAudioFeatures) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no audio features available for this track"})
		return
	}
	if err != nil {
		h.logger.Warn("track lookup failed", zap.String("track_id", id), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "could not fetch track features"})
		return
	}

	values := make(map[string]float64, len(track.Values))
	for f, v := range track.Values {
		values[f.String()] = v
	}
	writeJSON(w, http.StatusOK, trackResponse{
		ID:     track.ID,
		Name:   track.Name,
		Artist: track.Artist,
		Values: values,
	})
}

// predictionResponse is returned by GET /api/predictions/{id}.
type predictionResponse struct {
	ID          string    `json:"id"`
	ClusterID   int       `json:"cluster_id"`
	Description string    `json:"description"`
	FeatureA    string    `json:"feature_a"`
	ValueA      float64   `json:"value_a"`
	FeatureB    string    `json:"feature_b"`
	ValueB      float64   `json:"value_b"`
	TrackID     *string   `json:"track_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// APIPrediction returns one recorded prediction (GET /api/predictions/{id}).
func (h *Handlers) APIPrediction(w http.ResponseWriter, r *http.Request) {
	if !h.service.HistoryEnabled() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "prediction history is disabled"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid prediction id"})
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "prediction not found"})
		return
	}
	if err != nil {
		h.logger.Error("loading prediction", zap.Stringer("id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load prediction"})
		return
	}

	writeJSON(w, http.StatusOK, predictionResponse{
		ID:          p.ID.String(),
		ClusterID:   p.ClusterID,
		Description: p.Description,
		FeatureA:    p.FeatureA,
		ValueA:      p.ValueA,
		FeatureB:    p.FeatureB,
		ValueB:      p.ValueB,
		TrackID:     p.TrackID,
		CreatedAt:   p.CreatedAt,
	})
}

// History shows recent predictions (GET /history).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	if !h.service.HistoryEnabled() {
		http.NotFound(w, r)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	predictions, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("loading history", zap.Error(err))
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	counts, err := h.service.ClusterCounts(r.Context())
	if err != nil {
		h.logger.Error("loading cluster counts", zap.Error(err))
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	data := HistoryPageData{
		PageData:    h.pageData(r, "Prediction History"),
		Predictions: make([]PredictionData, len(predictions)),
		Counts:      make([]ClusterCountData, len(counts)),
	}
	for i, p := range predictions {
		pd := PredictionData{
			ClusterID:   p.ClusterID,
			Description: p.Description,
			FeatureA:    p.FeatureA,
			ValueA:      p.ValueA,
			FeatureB:    p.FeatureB,
			ValueB:      p.ValueB,
			CreatedAt:   p.CreatedAt,
		}
		if p.TrackID != nil {
			pd.TrackID = *p.TrackID
		}
		data.Predictions[i] = pd
	}
	for i, c := range counts {
		data.Counts[i] = ClusterCountData{
			ClusterID:   c.ClusterID,
			Description: clustering.Describe(c.ClusterID),
			Count:       c.Count,
		}
	}

	h.render(w, http.StatusOK, "history", data)
}

// Healthz reports liveness (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) pageData(r *http.Request, title string) PageData {
	return PageData{
		Title:          title,
		CurrentPath:    r.URL.Path,
		HistoryEnabled: h.service.HistoryEnabled(),
	}
}

// defaultForm returns the form with first selected. The second feature
// defaults to the second entry of the remaining choices.
func (h *Handlers) defaultForm(first clustering.Feature) FormData {
	second := clustering.SecondChoices(first)
	form := FormData{
		Features:      clustering.FeatureNames(),
		SecondChoices: featureStrings(second),
		FeatureA:      first.String(),
		ValueA:        DefaultValue,
		ValueB:        DefaultValue,
		TracksEnabled: h.tracks != nil,
	}
	if len(second) > 1 {
		form.FeatureB = second[1].String()
	} else if len(second) == 1 {
		form.FeatureB = second[0].String()
	}
	return form
}

func (h *Handlers) render(w http.ResponseWriter, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, page, data); err != nil {
		h.logger.Error("rendering template", zap.String("page", page), zap.Error(err))
	}
}

// parseSelection builds a selection from raw form fields.
func parseSelection(featureA, valueA, featureB, valueB string) (clustering.Selection, error) {
	va, err := strconv.ParseFloat(valueA, 64)
	if err != nil {
		return clustering.Selection{}, fmt.Errorf("value for %s must be a number", featureA)
	}
	vb, err := strconv.ParseFloat(valueB, 64)
	if err != nil {
		return clustering.Selection{}, fmt.Errorf("value for %s must be a number", featureB)
	}
	return selectionFromNames(featureA, va, featureB, vb)
}

func selectionFromNames(featureA string, valueA float64, featureB string, valueB float64) (clustering.Selection, error) {
	a, err := clustering.ParseFeature(featureA)
	if err != nil {
		return clustering.Selection{}, err
	}
	b, err := clustering.ParseFeature(featureB)
	if err != nil {
		return clustering.Selection{}, err
	}
	sel := clustering.Selection{FeatureA: a, ValueA: valueA, FeatureB: b, ValueB: valueB}
	return sel, sel.Validate()
}

// errorStatus maps a prediction error to an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, clustering.ErrUnknownFeature),
		errors.Is(err, clustering.ErrSameFeature),
		errors.Is(err, clustering.ErrNonFiniteValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// userMessage returns the text shown to the client for a failed prediction.
func userMessage(err error, status int) string {
	switch {
	case status == http.StatusBadRequest:
		return err.Error()
	case errors.Is(err, model.ErrShapeMismatch):
		return "The loaded model does not accept the feature vector: " + err.Error()
	default:
		return "Prediction failed."
	}
}

func toResultData(res *predict.Result) *ResultData {
	return &ResultData{
		ClusterID:   res.ClusterID,
		Description: res.Description,
		Message:     res.Message,
		FeatureA:    res.Selection.FeatureA.String(),
		FeatureB:    res.Selection.FeatureB.String(),
		Vector:      clustering.FormatVector(res.Vector),
	}
}

func featureStrings(features []clustering.Feature) []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = f.String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
