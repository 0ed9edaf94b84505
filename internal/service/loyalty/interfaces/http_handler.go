// internal/service/loyalty/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"promohub/internal/pkg/errsink"
	"promohub/internal/service/loyalty/application"
	"promohub/internal/service/loyalty/domain"
)

// LoyaltyHandler 封装 loyalty 服务的 HTTP 处理器。
type LoyaltyHandler struct {
	promoSvc    *application.PromoCodeService
	purchaseSvc *application.PurchaseService
	sink        errsink.Sink
}

func NewLoyaltyHandler(promoSvc *application.PromoCodeService, purchaseSvc *application.PurchaseService, sink errsink.Sink) *LoyaltyHandler {
	return &LoyaltyHandler{promoSvc: promoSvc, purchaseSvc: purchaseSvc, sink: sink}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *LoyaltyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/apply_promocode", h.handleApply)
	mux.HandleFunc("/redeem", h.handleRedeem)
	mux.HandleFunc("/user_promocodes", h.handleListForUser)
	mux.HandleFunc("/cancel_purchase", h.handleCancel)
}

type promoRequest struct {
	UserUUID  string `json:"user_id"`
	PromoCode string `json:"promocode"`
	TariffID  uint   `json:"tariff_id"`
}

type cancelRequest struct {
	UserUUID   string `json:"user_id"`
	PurchaseID uint   `json:"purchase_id"`
}

func (h *LoyaltyHandler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.purchaseSvc.Apply(ctx, req.UserUUID, req.PromoCode, req.TariffID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, resp)
}

func (h *LoyaltyHandler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.purchaseSvc.Redeem(ctx, req.UserUUID, req.PromoCode, req.TariffID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, resp)
}

func (h *LoyaltyHandler) handleListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	userUUID := r.URL.Query().Get("user_id")
	if userUUID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	resp, err := h.promoSvc.ListActiveForUser(ctx, userUUID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, resp)
}

func (h *LoyaltyHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.purchaseSvc.Cancel(ctx, req.PurchaseID, req.UserUUID); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, map[string]bool{"cancelled": true})
}

// writeError 按错误类型映射状态码。
// 业务结果用 errors.Is 识别；其余一律上报错误收集器并只回一个通用消息，
// 内部细节不往外漏。
func (h *LoyaltyHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrPromoCodeNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrTariffNotFound),
		errors.Is(err, domain.ErrPurchaseNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		statusCode = http.StatusForbidden
	case errors.Is(err, domain.ErrExpired),
		errors.Is(err, domain.ErrUsageLimitReached):
		statusCode = http.StatusBadRequest
	default:
		h.sink.Capture(ctx, "loyalty.http", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Error(w, err.Error(), statusCode)
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
