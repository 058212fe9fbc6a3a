// Copyright 2025 James Ross
//
// Package cliflags defines the CLI flag surface shared by every controller
// binary, grounded on the original common/utils.parse_common_args.
package cliflags

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Common holds the flags every controller accepts.
type Common struct {
	Project         string
	DryRun          bool
	DatasetName     string
	DatasetLocation string
	ServiceLocation string
	Queue           string
	HandlerName     string
	Scope           string
	ResourceTypes   string
	ManagingSystems string
	QuotaPercent    int
	ConfigPath      string
}

// Parse registers and parses the common flag set against args (typically
// os.Args[1:]). project is required; everything else has a default matching
// the original argparse surface.
func Parse(fs *flag.FlagSet, args []string) (*Common, error) {
	c := &Common{}
	fs.StringVar(&c.Project, "project", "", "anchor project id (required)")
	fs.BoolVar(&c.DryRun, "dry-run", false, "log actions without writing or enqueueing")
	fs.StringVar(&c.DatasetName, "dataset-name", "catalog_migration", "warehouse dataset name")
	fs.StringVar(&c.DatasetLocation, "dataset-location", "US", "warehouse dataset location")
	fs.StringVar(&c.ServiceLocation, "service-location", "us-central1", "region the controller's own service runs in")
	fs.StringVar(&c.Queue, "queue", "", "base queue name")
	fs.StringVar(&c.HandlerName, "handler-name", "", "worker service name tasks are delivered to")
	fs.StringVar(&c.Scope, "scope", "", "organizations/<id>|folders/<id>|projects/<id>")
	fs.StringVar(&c.ResourceTypes, "resource-types", "entry_group,tag_template", "comma-separated resource types to process")
	fs.StringVar(&c.ManagingSystems, "managing-systems", "LEGACY,TARGET", "comma-separated managing systems to process")
	fs.IntVar(&c.QuotaPercent, "quota-consumption", 50, "percent of discovered quota to allocate, 1-100")
	fs.StringVar(&c.ConfigPath, "config", "config.yaml", "path to the shared config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.Project == "" {
		return nil, fmt.Errorf("-project is required")
	}
	if c.QuotaPercent < 1 || c.QuotaPercent > 100 {
		return nil, fmt.Errorf("-quota-consumption must be 1..100")
	}
	return c, nil
}

// ResourceTypeList splits the comma-separated -resource-types flag.
func (c *Common) ResourceTypeList() []string {
	return splitTrim(c.ResourceTypes)
}

// ManagingSystemList splits the comma-separated -managing-systems flag.
func (c *Common) ManagingSystemList() []string {
	return splitTrim(c.ManagingSystems)
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Str2Bool parses the handful of truthy/falsy string spellings the original
// accepted for boolean environment/flag values.
func Str2Bool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "t", "y", "1":
		return true, nil
	case "no", "false", "f", "n", "0", "":
		return false, nil
	default:
		return strconv.ParseBool(s)
	}
}
