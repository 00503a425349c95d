package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matches %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestTierMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_tier_tables.sql")

	checks := []string{
		"CREATE TABLE user_tiers",
		"user_id uuid NOT NULL UNIQUE",
		"CREATE TABLE user_usage",
		"DROP TABLE user_usage",
		"DROP TABLE user_tiers",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSubscriptionLogMigrationIndexesPaymentID(t *testing.T) {
	content := readMigration(t, "*_create_subscription_logs.sql")

	checks := []string{
		"CREATE TABLE subscription_logs",
		"amount_gross numeric(12,2) NOT NULL",
		"CREATE INDEX idx_subscription_logs_pf_payment_id",
		"DROP TABLE subscription_logs",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestRegistrationsMigrationEnforcesExternalID(t *testing.T) {
	content := readMigration(t, "*_create_registrations.sql")

	checks := []string{
		"CREATE TABLE organizations",
		"CREATE TABLE registrations",
		"external_id text NOT NULL UNIQUE",
		"CREATE INDEX idx_registrations_organization_id",
		"DROP TABLE registrations",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
