package config_test

import (
	"strings"
	"testing"

	"dealflow/internal/config"
)

func TestDefaultTiers(t *testing.T) {
	cfg := config.Default("acme")
	if cfg.Org.ID != "acme" {
		t.Fatalf("expected org id, got %q", cfg.Org.ID)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	for _, dom := range []string{"revenue", "procurement"} {
		tiers := cfg.TiersFor(dom)
		if len(tiers) != 2 || tiers[0].Threshold != 5_000_000 || tiers[1].Threshold != 10_000_000 {
			t.Fatalf("%s tiers: %+v", dom, tiers)
		}
		if tiers[0].Role != "Finance Head" || tiers[1].Role != "CFO" {
			t.Fatalf("%s roles: %+v", dom, tiers)
		}
	}
}

func TestValidateRejectsBadTiers(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing org id",
			yaml: "approvals:\n  revenue:\n    - {threshold: 1, role: A}\n  procurement:\n    - {threshold: 1, role: A}\n",
			want: "org.id is required",
		},
		{
			name: "no tiers",
			yaml: "org: {id: acme}\napprovals:\n  revenue: []\n  procurement:\n    - {threshold: 1, role: A}\n",
			want: "at least one tier",
		},
		{
			name: "unordered thresholds",
			yaml: "org: {id: acme}\napprovals:\n  revenue:\n    - {threshold: 100, role: A}\n    - {threshold: 10, role: B}\n  procurement:\n    - {threshold: 1, role: A}\n",
			want: "ordered by threshold",
		},
		{
			name: "empty role",
			yaml: "org: {id: acme}\napprovals:\n  revenue:\n    - {threshold: 100, role: \"\"}\n  procurement:\n    - {threshold: 1, role: A}\n",
			want: "empty role",
		},
		{
			name: "webhook without url",
			yaml: "org: {id: acme}\napprovals:\n  revenue:\n    - {threshold: 1, role: A}\n  procurement:\n    - {threshold: 1, role: A}\nwebhooks:\n  - secret: s\n",
			want: "url is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.FromYAML([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestFromYAML(t *testing.T) {
	raw := `
org:
  id: acme
  name: Acme
approvals:
  revenue:
    - threshold: 1000000
      role: Sales Director
      reason: sign-off
  procurement:
    - threshold: 500000
      role: Finance Head
webhooks:
  - url: https://hooks.example/dealflow
    actions: ["revenue.created"]
`
	cfg, err := config.FromYAML([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Org.Name != "Acme" {
		t.Fatalf("org name: %q", cfg.Org.Name)
	}
	if got := cfg.TiersFor("procurement"); len(got) != 1 || got[0].Role != "Finance Head" {
		t.Fatalf("procurement tiers: %+v", got)
	}
	if len(cfg.Webhooks) != 1 || len(cfg.Webhooks[0].Actions) != 1 {
		t.Fatalf("webhooks: %+v", cfg.Webhooks)
	}
}
