package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Share links — mint, revoke, public resolve
// ============================================================

func mintShareLinkHandler(svc *service.ShareService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/bills/{billId}/share")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		billID := chi.URLParam(r, "billId")
		span.SetAttributes(attribute.String("bill.id", billID))

		// Empty body means default TTL and no PIN.
		var req domain.ShareLinkRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		resp, err := svc.Mint(ctx, userID, billID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func revokeShareLinkHandler(svc *service.ShareService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/{userId}/bills/{billId}/share/{linkId}")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		linkID := chi.URLParam(r, "linkId")
		span.SetAttributes(attribute.String("link.id", linkID))

		if err := svc.Revoke(ctx, userID, linkID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func resolveShareLinkHandler(svc *service.ShareService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/share/{token}")
		defer span.End()

		token := chi.URLParam(r, "token")
		pin := r.URL.Query().Get("pin")

		view, err := svc.Resolve(ctx, token, pin)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
