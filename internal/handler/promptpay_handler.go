package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pwasut/harnkan/internal/infra/observability"
	"github.com/pwasut/harnkan/internal/promptpay"

	"go.uber.org/zap"
)

// ============================================================
// PromptPay QR — POST /v1/promptpay/qr
// ============================================================

type promptPayRequest struct {
	TargetType string  `json:"target_type,omitempty"` // phone | national_id | ewallet
	Target     string  `json:"target"`
	Amount     float64 `json:"amount,omitempty"` // 0 → static QR
}

type promptPayResponse struct {
	Payload    string  `json:"payload"`
	TargetType string  `json:"target_type"`
	Amount     float64 `json:"amount,omitempty"`
	Dynamic    bool    `json:"dynamic"`
}

func promptPayHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/promptpay/qr")
		defer span.End()

		var req promptPayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Target == "" {
			writeError(w, http.StatusBadRequest, "target is required")
			return
		}

		targetType := req.TargetType
		if targetType == "" {
			targetType = promptpay.DetectTarget(req.Target)
		}

		payload, err := promptpay.Build(targetType, req.Target, req.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		metrics.IncrQRIssued()
		writeJSON(w, http.StatusOK, promptPayResponse{
			Payload:    payload,
			TargetType: targetType,
			Amount:     req.Amount,
			Dynamic:    req.Amount > 0,
		})
	}
}
