// internal/service/auth/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"promohub/internal/pkg/errsink"
	"promohub/internal/service/auth/application"
	"promohub/internal/service/auth/domain"
)

// AuthHandler 封装认证服务的 HTTP 处理器。
type AuthHandler struct {
	service *application.UserService
	sink    errsink.Sink
}

func NewAuthHandler(service *application.UserService, sink errsink.Sink) *AuthHandler {
	return &AuthHandler{service: service, sink: sink}
}

func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/delete", h.handleDelete)
	mux.HandleFunc("/history", h.handleHistory)
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type userResponse struct {
	UUID      string `json:"uuid"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Active    bool   `json:"active"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientID string `json:"client_id"`
}

type historyEntry struct {
	ClientID  string    `json:"client_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(ctx, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, toUserResponse(user))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.Login(ctx, req.Email, req.Password, req.ClientID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, toUserResponse(user))
}

func (h *AuthHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	userUUID := r.URL.Query().Get("user_id")
	if userUUID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	if err := h.service.Deactivate(ctx, userUUID); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, map[string]bool{"deleted": true})
}

func (h *AuthHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	userUUID := r.URL.Query().Get("user_id")
	if userUUID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.service.AuthHistory(ctx, userUUID, limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, historyEntry{ClientID: rec.ClientID, CreatedAt: rec.CreatedAt})
	}
	writeJSON(w, entries)
}

func (h *AuthHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrUserNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPassword), errors.Is(err, domain.ErrUserDeactivated):
		statusCode = http.StatusUnauthorized
	default:
		h.sink.Capture(ctx, "auth.http", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Error(w, err.Error(), statusCode)
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		UUID:      u.UUID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Active:    u.Active,
	}
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
