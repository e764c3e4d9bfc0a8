package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/service"
)

// ============================================================
// Sessions
// ============================================================

// createSessionHandler accepts an optional UserInput body.
func createSessionHandler(svc *service.Estimator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sessions")
		defer span.End()

		var input *domain.UserInput
		var in domain.UserInput
		switch err := decodeBody(w, r, &in); {
		case err == nil:
			input = &in
		case isEmptyBody(err):
		default:
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.CreateSession(ctx, input)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func getSessionHandler(svc *service.Estimator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.GetSession(r.Context(), SessionIDFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func updateInputHandler(svc *service.Estimator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.UserInput
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		v, err := svc.UpdateInput(r.Context(), SessionIDFromContext(r.Context()), in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// calculateHandler answers 200 with the Error state when the provider
// could not be entered, and 409 when a newer calculation superseded it.
func calculateHandler(svc *service.Estimator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := SessionIDFromContext(r.Context())
		ctx, span := tracer.Start(r.Context(), "POST /v1/sessions/{id}/calculate")
		defer span.End()
		span.SetAttributes(attribute.String("session.id", id))

		v, err := svc.Calculate(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func setRatioHandler(svc *service.Estimator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.RatioRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		v, err := svc.SetRatio(r.Context(), SessionIDFromContext(r.Context()), req.DownPaymentRatio)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func editParamsHandler(svc *service.Estimator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var edit domain.ParamsEdit
		if err := decodeBody(w, r, &edit); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		v, err := svc.EditParams(r.Context(), SessionIDFromContext(r.Context()), edit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
