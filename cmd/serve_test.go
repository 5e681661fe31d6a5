package cmd

import (
	"strings"
	"testing"
)

func TestPrettyConfigMasksAPIKey(t *testing.T) {
	t.Parallel()

	c := &Config{
		AI: &AIConfig{
			Provider: "gemini",
			Gemini: &GeminiConfig{
				APIKey: "super-secret",
				Model:  "gemini-2.0-flash",
			},
		},
	}

	out := prettyConfig(c)
	if strings.Contains(out, "super-secret") {
		t.Fatal("api key leaked into the debug output")
	}
	if !strings.Contains(out, "[redacted]") {
		t.Error("expected the masked credential marker")
	}
	if !strings.Contains(out, "gemini-2.0-flash") {
		t.Error("expected the rest of the config to survive")
	}

	if c.AI.Gemini.APIKey != "super-secret" {
		t.Error("masking must not modify the live config")
	}
}

func TestPrettyConfigWithoutAI(t *testing.T) {
	t.Parallel()

	out := prettyConfig(&Config{Listen: ":8080"})
	if !strings.Contains(out, ":8080") {
		t.Errorf("unexpected output %q", out)
	}
}
