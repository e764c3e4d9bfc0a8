package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/service"
)

// ============================================================
// Stateless estimator endpoints
// ============================================================

func citiesHandler(svc *service.Estimator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"groups": svc.Cities()})
	}
}

func computeHandler(svc *service.Estimator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/mortgage/compute")
		defer span.End()

		var req domain.ComputeRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.Compute(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func compareHandler(svc *service.Estimator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/mortgage/compare")
		defer span.End()

		var req domain.CompareRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.Int("cities", len(req.Cities)))

		out, err := svc.Compare(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"comparisons": out})
	}
}

// assumptionsHandler answers 200 even when the backend failed; the body
// then carries the fallback parameter set.
func assumptionsHandler(svc *service.Estimator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/assumptions")
		defer span.End()

		var in domain.UserInput
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("city", in.City))

		params, err := svc.Assumptions(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, params)
	}
}
