package invitations

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateSlug(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	tests := []struct {
		name      string
		eventName string
		want      string
	}{
		{"simple", "Boda Ana y Luis", "boda-ana-y-luis-1700000000000"},
		{"accents", "Quinceañera María", "quinceanera-maria-1700000000000"},
		{"symbols", "XV Años!!", "xv-anos-1700000000000"},
		{"empty falls back", "", "evento-1700000000000"},
		{"only symbols falls back", "!!!", "evento-1700000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSlug(tt.eventName, now)
			if got != tt.want {
				t.Errorf("GenerateSlug(%q) = %q, want %q", tt.eventName, got, tt.want)
			}
		})
	}
}

func TestGenerateSlugDistinctTimestamps(t *testing.T) {
	a := GenerateSlug("Boda", time.UnixMilli(1))
	b := GenerateSlug("Boda", time.UnixMilli(2))
	if a == b {
		t.Fatalf("slugs for different times collided: %q", a)
	}
	if !strings.HasPrefix(a, "boda-") {
		t.Errorf("slug %q missing event name prefix", a)
	}
}
