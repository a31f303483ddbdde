package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"microsoc/internal/events"
	"microsoc/internal/incidents"
	"microsoc/internal/logger"
	"microsoc/internal/metrics"
	"microsoc/internal/operators"
	"microsoc/internal/pubsub"
)

// Server exposes the query and incident-resolution surface over HTTP.
type Server struct {
	events    *events.Store
	incidents *incidents.Store
	operators *operators.Directory
	broker    *pubsub.Broker
	ws        http.Handler
}

func NewServer(ev *events.Store, inc *incidents.Store, ops *operators.Directory, broker *pubsub.Broker, ws http.Handler) *Server {
	return &Server{
		events:    ev,
		incidents: inc,
		operators: ops,
		broker:    broker,
		ws:        ws,
	}
}

// Routes builds the ServeMux for the dashboard API.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("DELETE /api/events", s.handlePurgeEvents)
	mux.HandleFunc("GET /api/incidents", s.handleListIncidents)
	mux.HandleFunc("GET /api/incidents/open", s.handleOpenIncidents)
	mux.HandleFunc("POST /api/incidents/{id}/resolve", s.handleResolveIncident)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/operators", s.handleListOperators)
	if s.ws != nil {
		mux.Handle("GET /ws", s.ws)
	}
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	list := s.events.ListRecent(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"events": list,
		"count":  len(list),
	})
}

func (s *Server) handlePurgeEvents(w http.ResponseWriter, r *http.Request) {
	operatorID := r.Header.Get("X-Operator-ID")
	if !s.operators.IsAdmin(operatorID) {
		http.Error(w, "admin role required", http.StatusForbidden)
		return
	}
	s.events.Purge()
	logger.Infof("api: event feed purged by operator %s", operatorID)
	s.publish(pubsub.TypeStateChanged, map[string]any{"action": "events_purged"})
	writeJSON(w, http.StatusOK, map[string]any{"message": "events purged"})
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	list := s.incidents.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"incidents": list,
		"count":     len(list),
	})
}

func (s *Server) handleOpenIncidents(w http.ResponseWriter, r *http.Request) {
	list := s.incidents.ListOpen()
	writeJSON(w, http.StatusOK, map[string]any{
		"incidents": list,
		"count":     len(list),
	})
}

func (s *Server) handleResolveIncident(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		OperatorID string `json:"operator_id"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	operator, ok := s.operators.Get(body.OperatorID)
	if !ok {
		http.Error(w, "unknown operator", http.StatusBadRequest)
		return
	}

	err := s.incidents.Resolve(id, operator.ID, time.Now().UTC())
	if errors.Is(err, incidents.ErrNotFound) {
		http.Error(w, "incident not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "resolve failed", http.StatusInternalServerError)
		return
	}

	metrics.IncidentsResolved.Inc()
	logger.Infof("api: incident %s resolved by %s", id, operator.Name)
	s.publish(pubsub.TypeStateChanged, map[string]any{
		"action":      "incident_resolved",
		"incident_id": id,
		"operator_id": operator.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "incident resolved"})
}

type operatorStats struct {
	OperatorID string `json:"operator_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Resolved   int    `json:"resolved"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts := s.incidents.ResolutionCounts()

	resolutions := make([]operatorStats, 0, len(counts))
	for _, op := range s.operators.List() {
		resolutions = append(resolutions, operatorStats{
			OperatorID: op.ID,
			Name:       op.Name,
			Role:       string(op.Role),
			Resolved:   counts[op.ID],
		})
		delete(counts, op.ID)
	}
	// Attributions from operators no longer in the directory still count.
	for _, id := range sortedKeys(counts) {
		resolutions = append(resolutions, operatorStats{OperatorID: id, Resolved: counts[id]})
	}

	payload := map[string]any{
		"total_events":   s.events.Len(),
		"open_incidents": s.incidents.OpenCount(),
		"resolutions":    resolutions,
	}
	if top, ok := s.events.TopSource(); ok {
		payload["top_source"] = top
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleListOperators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"operators": s.operators.List()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) publish(msgType pubsub.MessageType, data any) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(pubsub.Message{Type: msgType, Data: data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("api: encode response: %v", err)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
