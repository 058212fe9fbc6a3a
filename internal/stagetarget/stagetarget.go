// Copyright 2025 James Ross
//
// Package stagetarget resolves the HTTP endpoint a task should be delivered
// to: one Cloud-Run-style service per stage, addressed by project number and
// region. It implements stagecommon.Targeter by composing the queue
// publisher's project-number cache with the directory client's resolver.
package stagetarget

import (
	"context"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/queuepub"
)

// ServiceTargeter addresses one stage's worker service.
type ServiceTargeter struct {
	Service   string
	Publisher *queuepub.Publisher
	Directory catalogapi.DirectoryClient
	// AnchorProjectID is used when a task carries no projectID of its own
	// (the legacy-side stages transfer/cleanup address a single shared
	// worker deployment rather than a per-project one).
	AnchorProjectID string
}

func (t *ServiceTargeter) Target(ctx context.Context, projectID, region string) (string, error) {
	pid := projectID
	if pid == "" {
		pid = t.AnchorProjectID
	}
	number, err := t.Publisher.ProjectNumber(ctx, pid, t.Directory.ProjectNumber)
	if err != nil {
		return "", err
	}
	return t.Publisher.ServiceURL(t.Service, number, region), nil
}
