package main

import (
	"os"
	"path/filepath"
	"testing"
)

const lifecyclePrefix = "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service"

func TestCheckImportRules(t *testing.T) {
	cases := []struct {
		layer  string
		path   string
		broken bool
	}{
		{layer: "domain", path: "time"},
		{layer: "domain", path: lifecyclePrefix + "/domain/entities"},
		{layer: "domain", path: lifecyclePrefix + "/ports", broken: true},
		{layer: "domain", path: "github.com/google/uuid", broken: true},
		{layer: "ports", path: "brandreach/contracts/events/v1"},
		{layer: "application", path: "go.opentelemetry.io/otel/attribute"},
		{layer: "application", path: "github.com/cenkalti/backoff/v5"},
		{layer: "application", path: lifecyclePrefix + "/adapters/memory", broken: true},
		{layer: "application", path: "brandreach/internal/platform/config", broken: true},
		{layer: "application", path: "gorm.io/gorm", broken: true},
		{layer: "adapters", path: "gorm.io/gorm"},
		{layer: "adapters", path: "brandreach/contexts/finance-core/platform-fee-engine/ports", broken: true},
	}
	for _, tc := range cases {
		rule := checkImport(tc.layer, lifecyclePrefix, tc.path)
		if tc.broken && rule == "" {
			t.Fatalf("expected %s importing %s to be rejected", tc.layer, tc.path)
		}
		if !tc.broken && rule != "" {
			t.Fatalf("expected %s importing %s to be allowed, got %q", tc.layer, tc.path, rule)
		}
	}
}

func TestCollectViolationsReportsDomainLeak(t *testing.T) {
	root := filepath.Join(t.TempDir(), "contexts")
	dir := filepath.Join(root, "campaign-marketplace", "campaign-lifecycle-service", "domain", "entities")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	source := "package entities\n\nimport (\n\t\"time\"\n\n\t\"gorm.io/gorm\"\n)\n\nvar _ = time.Now\nvar _ *gorm.DB\n"
	if err := os.WriteFile(filepath.Join(dir, "campaign.go"), []byte(source), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	testSource := "package entities\n\nimport _ \"gorm.io/gorm\"\n"
	if err := os.WriteFile(filepath.Join(dir, "campaign_test.go"), []byte(testSource), 0o600); err != nil {
		t.Fatalf("write test source: %v", err)
	}

	violations := collectViolations(root)
	if len(violations) != 1 {
		t.Fatalf("expected one violation, got %+v", violations)
	}
	if violations[0].Import != "gorm.io/gorm" || violations[0].Line != 6 {
		t.Fatalf("unexpected violation %+v", violations[0])
	}
}
