// Copyright 2025 James Ross
//
// Package resourceidentity parses and formats the resource-name grammars of
// the legacy and target catalogs, and dispatches on the tagged union of
// resource kinds a migration task can carry.
package resourceidentity

import (
	"fmt"
	"regexp"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
)

// ResourceKind is the tagged union carried explicitly on every task payload.
// Workers switch on it instead of doing a runtime type check.
type ResourceKind string

const (
	KindEntryGroup  ResourceKind = "EntryGroup"
	KindTagTemplate ResourceKind = "TagTemplate"
)

// ManagingSystem is the catalog currently authoritative for a resource.
type ManagingSystem string

const (
	SystemLegacy ManagingSystem = "LEGACY"
	SystemTarget ManagingSystem = "TARGET"
)

// AncestryKind is one link in a project's ancestry chain.
type AncestryKind string

const (
	AncestryFolder       AncestryKind = "FOLDER"
	AncestryOrganization AncestryKind = "ORGANIZATION"
)

// These hostnames name the legacy and target catalog APIs, mirroring the
// strings the original's Project.proto_to_project matched. The discovery
// stage does not reference them: it takes the api-enabled flags from the
// directory search response as-is.
const (
	LegacyAPIHost = "datacatalog.googleapis.com"
	TargetAPIHost = "dataplex.googleapis.com"
)

var (
	legacyEntryGroupRE  = regexp.MustCompile(`^projects/([^/]+)/locations/([^/]+)/entryGroups/([^/]+)$`)
	legacyTagTemplateRE = regexp.MustCompile(`^projects/([^/]+)/locations/([^/]+)/tagTemplates/([^/]+)$`)
	targetEntryGroupRE  = regexp.MustCompile(`^projects/([^/]+)/locations/([^/]+)/entryGroups/([^/]+)$`)
	targetTagTemplateRE = regexp.MustCompile(`^projects/([^/]+)/locations/global/aspectTypes/([^/]+)$`)
)

// ParseLegacyFQN parses a legacy-system fully-qualified resource name for the
// given kind, returning its (project, location, id) triple.
func ParseLegacyFQN(kind ResourceKind, fqn string) (project, location, id string, err error) {
	var re *regexp.Regexp
	switch kind {
	case KindEntryGroup:
		re = legacyEntryGroupRE
	case KindTagTemplate:
		re = legacyTagTemplateRE
	default:
		return "", "", "", migerr.New(migerr.KindTypeMismatch, fmt.Sprintf("unknown resource kind %q", kind))
	}
	m := re.FindStringSubmatch(fqn)
	if m == nil {
		return "", "", "", migerr.New(migerr.KindFormatFault, fmt.Sprintf("malformed legacy %s fqn %q", kind, fqn))
	}
	return m[1], m[2], m[3], nil
}

// FormatLegacyFQN is the inverse of ParseLegacyFQN.
func FormatLegacyFQN(kind ResourceKind, project, location, id string) string {
	switch kind {
	case KindEntryGroup:
		return fmt.Sprintf("projects/%s/locations/%s/entryGroups/%s", project, location, id)
	case KindTagTemplate:
		return fmt.Sprintf("projects/%s/locations/%s/tagTemplates/%s", project, location, id)
	default:
		return ""
	}
}

// ParseTargetFQN parses a target-system fully-qualified resource name. Tag
// templates always live under locations/global/aspectTypes; entry groups keep
// their own location.
func ParseTargetFQN(kind ResourceKind, fqn string) (project, location, id string, err error) {
	switch kind {
	case KindEntryGroup:
		m := targetEntryGroupRE.FindStringSubmatch(fqn)
		if m == nil {
			return "", "", "", migerr.New(migerr.KindFormatFault, fmt.Sprintf("malformed target entry group fqn %q", fqn))
		}
		return m[1], m[2], m[3], nil
	case KindTagTemplate:
		m := targetTagTemplateRE.FindStringSubmatch(fqn)
		if m == nil {
			return "", "", "", migerr.New(migerr.KindFormatFault, fmt.Sprintf("malformed target tag template fqn %q", fqn))
		}
		return m[1], "global", m[2], nil
	default:
		return "", "", "", migerr.New(migerr.KindTypeMismatch, fmt.Sprintf("unknown resource kind %q", kind))
	}
}

// FormatTargetFQN is the inverse of ParseTargetFQN.
func FormatTargetFQN(kind ResourceKind, project, location, id string) string {
	switch kind {
	case KindEntryGroup:
		return fmt.Sprintf("projects/%s/locations/%s/entryGroups/%s", project, location, id)
	case KindTagTemplate:
		return fmt.Sprintf("projects/%s/locations/global/aspectTypes/%s", project, id)
	default:
		return ""
	}
}

// RegionSuffixedID is the documented collision-avoidance convention the
// mapping worker falls back to when the identity-preserving target name is
// not already present: <id>_<location>.
func RegionSuffixedID(id, location string) string {
	return fmt.Sprintf("%s_%s", id, location)
}
