// Copyright 2025 James Ross
package transfer

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Worker issues the legacy-side transfer mutation and classifies the result
// onto the documented HTTP status/message table. Only a 500 asks the queue
// to redeliver; every other outcome, including idempotent repeats, is
// terminal.
type Worker struct {
	Transferrer Transferrer
	Log         *zap.Logger
}

// Handle returns the classified Outcome alongside an error that is non-nil
// only when the caller (an HTTP handler wrapping this worker) should surface
// a 500 so the queue redelivers.
func (w *Worker) Handle(ctx context.Context, payload json.RawMessage) (Outcome, error) {
	var task TaskPayload
	if err := json.Unmarshal(payload, &task); err != nil {
		return Outcome{}, err
	}

	result, err := w.Transferrer.SetTransferred(ctx, task.ResourceName)
	outcome, classifyErr := ClassifyOutcome(result, err)
	if classifyErr != nil {
		w.Log.Warn("transfer failed, will retry", zap.String("resourceName", task.ResourceName), zap.Error(classifyErr))
		return outcome, classifyErr
	}
	w.Log.Info("transfer outcome", zap.String("resourceName", task.ResourceName), zap.String("message", outcome.Message))
	return outcome, nil
}
