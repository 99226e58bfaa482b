package history

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"clubpoker/internal/auth"
)

// HTTPHandler serves archived hand history to authenticated clients.
type HTTPHandler struct {
	auth    auth.Service
	history Service
}

func NewHTTPHandler(authService auth.Service, historyService Service) *HTTPHandler {
	return &HTTPHandler{auth: authService, history: historyService}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/history", h.handleList)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r) {
		http.Error(w, `{"error":"invalid or expired session"}`, http.StatusUnauthorized)
		return
	}
	roomID := strings.TrimSpace(r.URL.Query().Get("room_id"))
	if roomID == "" {
		http.Error(w, `{"error":"room_id required"}`, http.StatusBadRequest)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	records, err := h.history.ListRecent(r.Context(), roomID, limit)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"records": records})
}

func (h *HTTPHandler) authorized(r *http.Request) bool {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			token = strings.TrimSpace(header[len(prefix):])
		}
	}
	if token == "" {
		return false
	}
	_, _, ok := h.auth.ResolveSession(token)
	return ok
}
