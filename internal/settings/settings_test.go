package settings

import "testing"

func TestIsEnabled(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"0", false},
		{"", false},
		{"true", false},
	}
	for _, tc := range cases {
		s := Settings{Enabled: tc.value}
		if got := s.IsEnabled(); got != tc.want {
			t.Fatalf("IsEnabled(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestURLTrimsWhitespace(t *testing.T) {
	s := Settings{WebhookURL: "  https://example.com/hook  "}
	if got := s.URL(); got != "https://example.com/hook" {
		t.Fatalf("URL() = %q", got)
	}
	if (Settings{WebhookURL: "   "}).URL() != "" {
		t.Fatalf("whitespace-only URL should resolve empty")
	}
}

func TestResolveSecretFallsBackToDefault(t *testing.T) {
	if got := (Settings{}).ResolveSecret(); got != DefaultWebhookSecret {
		t.Fatalf("blank secret should fall back to default, got %q", got)
	}
	if got := (Settings{WebhookSecret: "   "}).ResolveSecret(); got != DefaultWebhookSecret {
		t.Fatalf("whitespace secret should fall back to default, got %q", got)
	}
	if got := (Settings{WebhookSecret: " custom "}).ResolveSecret(); got != "custom" {
		t.Fatalf("configured secret should be used trimmed, got %q", got)
	}
}
