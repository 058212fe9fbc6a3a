// Copyright 2025 James Ross
//
// Package stagehttp wraps a stage worker's Handle method as the HTTP
// endpoint the queue dispatcher delivers tasks to. The dispatcher treats any
// non-2xx response as "leave for redelivery". ErrorHandler returns 200 for
// migerr.Terminal errors and 500 for every other error. OutcomeHandler
// writes the status the worker's Outcome carries, and 500 when a failing
// worker leaves that status unset.
package stagehttp

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/obs"
)

// Outcome is the shape stages that classify their own HTTP status (transfer,
// cleanup, convertvisibility) return from Handle.
type Outcome struct {
	Status  int
	Message string
}

// writeMessage writes the documented {"message": string} response body.
func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// ErrorHandler wraps a Handle(ctx, payload) error method.
func ErrorHandler(stage string, log *zap.Logger, handle func(*http.Request, json.RawMessage) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
		if err := handle(r, body); err != nil {
			obs.TasksErrored.WithLabelValues(stage).Inc()
			if migerr.Terminal(err) {
				log.Info("task terminal, not redelivering", obs.String("stage", stage), obs.Err(err))
				writeMessage(w, http.StatusOK, err.Error())
				return
			}
			log.Warn("task failed, asking for redelivery", obs.String("stage", stage), obs.Err(err))
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		obs.TasksProcessed.WithLabelValues(stage).Inc()
		writeMessage(w, http.StatusOK, "ok")
	}
}

// OutcomeHandler wraps a Handle(ctx, payload) (Outcome, error) method whose
// stage already classifies its own status/message pair.
func OutcomeHandler(stage string, log *zap.Logger, handle func(*http.Request, json.RawMessage) (Outcome, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
		outcome, err := handle(r, body)
		if err != nil {
			obs.TasksErrored.WithLabelValues(stage).Inc()
			log.Warn("task failed, asking for redelivery", obs.String("stage", stage), obs.Err(err))
			status, message := outcome.Status, outcome.Message
			if status == 0 {
				status, message = http.StatusInternalServerError, err.Error()
			}
			writeMessage(w, status, message)
			return
		}
		obs.TasksProcessed.WithLabelValues(stage).Inc()
		writeMessage(w, outcome.Status, outcome.Message)
	}
}
