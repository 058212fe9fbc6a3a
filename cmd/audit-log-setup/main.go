// Copyright 2025 James Ross
//
// audit-log-setup is a one-shot CLI that ensures the auditLogAccess landing
// table exists. It does not create the external log sink that populates the
// table — wiring Data Access audit logs into this table via a log router
// sink is an operator task against the external logging service, out of
// this system's scope. This command only guarantees the table is ready to
// receive that export.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/obs"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/pipelineconfig"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

func main() {
	var configPath string
	var logSinkName string
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&configPath, "config", "config/config.yaml", "Path to YAML config")
	fs.StringVar(&logSinkName, "log-sink-name", "catalog-migration-audit-sink", "Name to print for the operator-provisioned log sink")
	_ = fs.Parse(os.Args[1:])

	cfg, err := pipelineconfig.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := obs.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	wh, err := warehouse.Open(cfg.Warehouse, logger)
	if err != nil {
		logger.Fatal("failed to open warehouse", obs.Err(err))
	}
	defer wh.Close()

	ctx := context.Background()
	if err := wh.EnsureDataset(ctx); err != nil {
		logger.Fatal("failed to ensure dataset", obs.Err(err))
	}
	if err := wh.EnsureTable(ctx, warehouse.TableAuditLogAccess); err != nil {
		logger.Fatal("failed to ensure audit log access table", obs.Err(err))
	}

	fmt.Printf("auditLogAccess table is ready in dataset %q.\n", cfg.Warehouse.Database)
	fmt.Printf("Point a Data Access audit log sink at it:\n")
	fmt.Printf("  sink name:        %s\n", logSinkName)
	fmt.Printf("  destination:      clickhouse://%s/%s.%s\n", cfg.Warehouse.Addr, cfg.Warehouse.Database, warehouse.TableAuditLogAccess)
	fmt.Printf("  filter:           logName:\"cloudaudit.googleapis.com%%2Fdata_access\"\n")
	logger.Info("audit log setup complete", obs.String("table", string(warehouse.TableAuditLogAccess)))
}
