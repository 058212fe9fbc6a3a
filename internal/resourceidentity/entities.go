// Copyright 2025 James Ross
package resourceidentity

import "time"

// AncestorRef is one link in a project's ancestry chain, ordered leaf to
// root.
type AncestorRef struct {
	Kind AncestryKind `json:"kind"`
	ID   string       `json:"id"`
}

// Project mirrors the warehouse `projects` row.
type Project struct {
	ProjectID            string        `json:"projectId"`
	ProjectNumber        int64         `json:"projectNumber"`
	DataCatalogAPIEnabled bool         `json:"dataCatalogApiEnabled"`
	TargetAPIEnabled      bool         `json:"targetApiEnabled"`
	Ancestry              []AncestorRef `json:"ancestry"`
	CreatedAt             time.Time     `json:"createdAt"`
}

// Merge combines two discovery hits for the same projectId, OR-ing the
// api-enabled flags as the original discovery merge does.
func (p Project) Merge(other Project) Project {
	p.DataCatalogAPIEnabled = p.DataCatalogAPIEnabled || other.DataCatalogAPIEnabled
	p.TargetAPIEnabled = p.TargetAPIEnabled || other.TargetAPIEnabled
	if len(p.Ancestry) == 0 {
		p.Ancestry = other.Ancestry
	}
	return p
}

// EntryGroup mirrors the warehouse `entryGroups` row.
type EntryGroup struct {
	ProjectID          string         `json:"projectId"`
	Location           string         `json:"location"`
	EntryGroupID       string         `json:"entryGroupId"`
	LegacyResourceName string         `json:"legacyResourceName"`
	TargetResourceName string         `json:"targetResourceName,omitempty"`
	ManagingSystem     ManagingSystem `json:"managingSystem"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// TagTemplate mirrors the warehouse `tagTemplates` row.
type TagTemplate struct {
	ProjectID           string         `json:"projectId"`
	Location            string         `json:"location"`
	TagTemplateID        string         `json:"tagTemplateId"`
	LegacyResourceName   string         `json:"legacyResourceName"`
	TargetResourceName   string         `json:"targetResourceName,omitempty"`
	ManagingSystem       ManagingSystem `json:"managingSystem"`
	IsPubliclyReadable   bool           `json:"isPubliclyReadable"`
	CreatedAt            time.Time      `json:"createdAt"`
}

// Binding is one IAM role/member grant.
type Binding struct {
	Role    string   `json:"role"`
	Members []string `json:"members"`
}
