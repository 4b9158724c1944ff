package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
	"github.com/Vodeneev/parlaybot/internal/pkg/storage"
)

const (
	maxReportLimit = 100
	requestTimeout = 5 * time.Minute
	maxBodyBytes   = 1 << 20
)

// RegisterHTTP registers analyzer endpoints onto mux.
func (a *Analyzer) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/fixtures", a.handleFixtures)
	mux.HandleFunc("/reports", a.handleReports)
	mux.HandleFunc("/evaluate", a.handleEvaluate)
	mux.HandleFunc("/tips", a.handleTips)
	mux.HandleFunc("/users", a.handleUsers)
	mux.HandleFunc("/status", a.handleStatus)
	mux.HandleFunc("/async/stop", a.handleStopAsync)
	mux.HandleFunc("/async/start", a.handleStartAsync)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed, use " + method})
	return false
}

func (a *Analyzer) handleFixtures(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	fixtures, err := a.Fixtures(ctx)
	if err != nil {
		slog.Error("Failed to load fixtures", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch fixtures", "details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, fixtures)
}

func (a *Analyzer) handleReports(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	limit := a.cfg.ReportLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit <= 0 || limit > maxReportLimit {
		limit = maxReportLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	reports, err := a.Reports(ctx, limit)
	if err != nil {
		slog.Error("Failed to build reports", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to evaluate fixtures", "details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (a *Analyzer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var p models.PredictionPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid prediction payload", "details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, a.Evaluate(&p))
}

type tipsResponse struct {
	Label string       `json:"label"`
	Tips  []models.Tip `json:"tips"`
}

func (a *Analyzer) handleTips(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	label, tips, err := a.Tips(ctx, r.URL.Query().Get("day"))
	switch {
	case errors.Is(err, errBadDay):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, errTipsDisabled):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	case err != nil:
		slog.Error("Failed to load tips", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to load tips", "details": err.Error()})
		return
	}
	if tips == nil {
		tips = []models.Tip{}
	}
	writeJSON(w, http.StatusOK, tipsResponse{Label: label, Tips: tips})
}

func (a *Analyzer) handleUsers(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var user storage.BotUser
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&user); err != nil || user.ChatID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be {\"chat_id\": <id>, \"username\": <name>}"})
		return
	}

	created, err := a.RegisterUser(r.Context(), user)
	switch {
	case errors.Is(err, errNoStorage):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	case err != nil:
		slog.Error("Failed to register user", "chat_id", user.ChatID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to register user"})
		return
	}
	if created {
		slog.Info("New bot user", "chat_id", user.ChatID, "username", user.Username)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"created": created})
}

func (a *Analyzer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"async_running": a.IsAsyncRunning(),
		"timezone":      a.loc.String(),
		"day":           a.Today().Format(dayLayout),
		"tips_enabled":  a.tips != nil,
	})
}

// handleStopAsync stops asynchronous processing
func (a *Analyzer) handleStopAsync(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	if !a.IsAsyncRunning() {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "already_stopped",
			"message": "Async processing is not running",
		})
		return
	}

	a.StopAsync()

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "stopped",
		"message": "Async processing stopped successfully",
	})
}

// handleStartAsync starts asynchronous processing
func (a *Analyzer) handleStartAsync(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	if a.IsAsyncRunning() {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "already_running",
			"message": "Async processing is already running",
		})
		return
	}

	if err := a.StartAsync(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "failed to start async processing",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "started",
		"message": "Async processing started successfully",
	})
}
