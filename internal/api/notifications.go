package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/enkou97/ses-job-crawler/internal/notify"
)

// NotificationHandler exposes the notification settings and test routes.
//
// Routes:
//
//	GET  /api/notifications/settings        → current settings
//	PUT  /api/notifications/settings        → partial update
//	POST /api/notifications/test/{channel}  → fire a test delivery
//	GET  /api/notifications/history         → recent delivery audit log
type NotificationHandler struct {
	svc *notify.Service
	log *slog.Logger
}

// NewNotificationHandler returns a configured NotificationHandler.
func NewNotificationHandler(svc *notify.Service, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: log}
}

// RegisterRoutes mounts all notification routes on mux.
func (h *NotificationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/notifications/settings", h.getSettings)
	mux.HandleFunc("PUT /api/notifications/settings", h.updateSettings)
	mux.HandleFunc("POST /api/notifications/test/{channel}", h.sendTest)
	mux.HandleFunc("GET /api/notifications/history", h.history)
}

func (h *NotificationHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.GetSettings(r.Context())
	if err != nil {
		h.log.Error("failed to load settings", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, settings)
}

func (h *NotificationHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req notify.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	settings, err := h.svc.UpdateSettings(r.Context(), req)
	if err != nil {
		h.log.Error("failed to update settings", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, settings)
}

func (h *NotificationHandler) history(w http.ResponseWriter, r *http.Request) {
	hours := 168 // one week
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			jsonError(w, "hours must be a positive integer", http.StatusBadRequest)
			return
		}
		hours = n
	}

	records, err := h.svc.History(r.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		h.log.Error("failed to load delivery history", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, records)
}

func (h *NotificationHandler) sendTest(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")
	if !h.svc.SendTestNotification(r.Context(), channel) {
		jsonError(w, "test notification failed", http.StatusBadGateway)
		return
	}
	jsonOK(w, map[string]string{"channel": channel, "result": "sent"})
}
