package manifest

import (
	"strings"
	"testing"
)

const validManifest = `{
  "schemaVersion": "1.0.0",
  "metadata": {
    "id": "acme-catalog",
    "name": "Acme Catalog",
    "description": "Reusable prompts and tasks",
    "author": "Acme",
    "repository": {"type": "github", "url": "https://github.com/acme/catalog", "branch": "main"},
    "license": "MIT"
  },
  "artifacts": [
    {
      "id": "code-review",
      "type": "prompt",
      "name": "Code Review",
      "description": "Structured review prompt",
      "path": "prompts/code-review.md",
      "version": "1.2.0",
      "category": "engineering",
      "tags": ["review", "quality"],
      "keywords": ["lint"],
      "language": ["go"],
      "difficulty": "intermediate",
      "metadata": {"rating": 4.5, "downloads": 1200, "lastUpdated": "2026-08-01T00:00:00Z"}
    }
  ]
}`

func TestParseValidManifest(t *testing.T) {
	m, result, err := Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid manifest, issues: %v", result.Issues)
	}
	if m.Metadata.ID != "acme-catalog" {
		t.Errorf("metadata id = %q", m.Metadata.ID)
	}
	if len(m.Artifacts) != 1 {
		t.Fatalf("artifacts = %d, want 1", len(m.Artifacts))
	}
	a := m.Artifacts[0]
	if a.Type != TypePrompt || a.Version != "1.2.0" {
		t.Errorf("artifact = %+v", a)
	}
	if a.Metadata == nil || a.Metadata.Downloads != 1200 {
		t.Errorf("artifact metadata = %+v", a.Metadata)
	}
}

func TestParseRejectsUnsupportedSchemaVersion(t *testing.T) {
	doc := strings.Replace(validManifest, `"schemaVersion": "1.0.0"`, `"schemaVersion": "9.9.9"`, 1)
	m, result, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest for unsupported schema version")
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if len(result.Issues) != 1 || result.Issues[0].Path != "/schemaVersion" {
		t.Errorf("issues = %+v", result.Issues)
	}
}

func TestValidateReportsIssues(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(string) string
		wantPath string
	}{
		{
			name:     "missing artifact version",
			mutate:   func(s string) string { return strings.Replace(s, `"version": "1.2.0",`, "", 1) },
			wantPath: "/artifacts/0",
		},
		{
			name:     "bad artifact type",
			mutate:   func(s string) string { return strings.Replace(s, `"type": "prompt"`, `"type": "gadget"`, 1) },
			wantPath: "/artifacts/0/type",
		},
		{
			name:     "bad difficulty",
			mutate:   func(s string) string { return strings.Replace(s, `"intermediate"`, `"impossible"`, 1) },
			wantPath: "/artifacts/0/difficulty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate([]byte(tt.mutate(validManifest)))
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if result.Valid {
				t.Fatal("expected invalid result")
			}
			found := false
			for _, issue := range result.Issues {
				if strings.HasPrefix(issue.Path, tt.wantPath) {
					found = true
				}
			}
			if !found {
				t.Errorf("no issue at %s, got %+v", tt.wantPath, result.Issues)
			}
			if result.Summary() == "" {
				t.Error("Summary() empty for invalid result")
			}
		})
	}
}

func TestValidateMalformedJSON(t *testing.T) {
	if _, err := Validate([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
