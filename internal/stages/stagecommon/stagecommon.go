// Copyright 2025 James Ross
//
// Package stagecommon holds the small set of interfaces and helpers shared
// by every stage's controller: enqueueing a task onto a region subqueue and
// resolving the HTTP target it is delivered to.
package stagecommon

import (
	"context"
	"encoding/json"
)

// Enqueuer is the subset of the queue publisher a controller needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, region string, payload json.RawMessage, target string) error
}

// Targeter resolves the HTTP endpoint a task for projectID/region should be
// delivered to.
type Targeter interface {
	Target(ctx context.Context, projectID, region string) (string, error)
}

// MarshalPayload is a small helper so stage controllers don't repeat the
// json.Marshal/error-wrap boilerplate at every call site.
func MarshalPayload(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
