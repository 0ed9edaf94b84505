// internal/service/admin/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"promohub/internal/pkg/errsink"
	"promohub/internal/service/admin/application"
	"promohub/internal/service/loyalty/domain"
)

// AdminHandler 封装管理端的 HTTP 处理器。
type AdminHandler struct {
	svc  *application.AdminService
	sink errsink.Sink
}

func NewAdminHandler(svc *application.AdminService, sink errsink.Sink) *AdminHandler {
	return &AdminHandler{svc: svc, sink: sink}
}

func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/promocodes/create", h.handleCreatePromoCode)
	mux.HandleFunc("/promocodes/delete", h.handleDeletePromoCode)
	mux.HandleFunc("/promocodes/grant", h.handleGrantAccess)
	mux.HandleFunc("/promocodes/revoke", h.handleRevokeAccess)
	mux.HandleFunc("/tariffs/create", h.handleCreateTariff)
	mux.HandleFunc("/tariffs/delete", h.handleDeleteTariff)
	mux.HandleFunc("/groups/create", h.handleCreateGroup)
	mux.HandleFunc("/groups/assign", h.handleAssignUser)
	mux.HandleFunc("/groups/remove", h.handleRemoveUser)
}

type createPromoRequest struct {
	Code           string  `json:"code"`
	DiscountType   string  `json:"discount_type"`
	Value          float64 `json:"value"`
	NumUses        int     `json:"num_uses"`
	ExpirationDate string  `json:"expiration_date,omitempty"` // YYYY-MM-DD
}

type promoResponse struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
}

func (h *AdminHandler) handleCreatePromoCode(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req createPromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	params := application.CreatePromoCodeParams{
		Code:    req.Code,
		Kind:    domain.DiscountKind(req.DiscountType),
		Value:   req.Value,
		NumUses: req.NumUses,
	}
	if req.ExpirationDate != "" {
		t, err := time.Parse("2006-01-02", req.ExpirationDate)
		if err != nil {
			http.Error(w, "invalid expiration_date", http.StatusBadRequest)
			return
		}
		params.ExpirationDate = &t
	}

	promo, err := h.svc.CreatePromoCode(ctx, params)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, promoResponse{ID: promo.ID, Code: promo.Code})
}

type idRequest struct {
	ID uint `json:"id"`
}

func (h *AdminHandler) handleDeletePromoCode(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeletePromoCode(ctx, req.ID); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, map[string]bool{"deleted": true})
}

type grantRequest struct {
	PromoCodeID uint     `json:"promocode_id"`
	UserUUIDs   []string `json:"user_ids"`
	GroupIDs    []uint   `json:"group_ids"`
}

func (h *AdminHandler) handleGrantAccess(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.GrantAccess(ctx, req.PromoCodeID, req.UserUUIDs, req.GroupIDs); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, map[string]bool{"granted": true})
}

func (h *AdminHandler) handleRevokeAccess(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.RevokeAccess(ctx, req.ID); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, map[string]bool{"revoked": true})
}

type createTariffRequest struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

func (h *AdminHandler) handleCreateTariff(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req createTariffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	tariff, err := h.svc.CreateTariff(ctx, req.Name, req.Price, req.Description)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, map[string]uint{"id": tariff.ID})
}

func (h *AdminHandler) handleDeleteTariff(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteTariff(ctx, req.ID); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, map[string]bool{"deleted": true})
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *AdminHandler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	group, err := h.svc.CreateGroup(ctx, req.Name, req.Description)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, map[string]uint{"id": group.ID})
}

type membershipRequest struct {
	GroupID  uint   `json:"group_id"`
	UserUUID string `json:"user_id"`
}

func (h *AdminHandler) handleAssignUser(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.AssignUserToGroup(ctx, req.GroupID, req.UserUUID); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, map[string]bool{"assigned": true})
}

func (h *AdminHandler) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.RemoveUserFromGroup(ctx, req.GroupID, req.UserUUID); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, map[string]bool{"removed": true})
}

func (h *AdminHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPromoCodeNotFound),
		errors.Is(err, domain.ErrTariffNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrUnknownDiscountKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.sink.Capture(ctx, "admin.http", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
