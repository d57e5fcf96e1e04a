package auth

import (
	"testing"
)

type mapStore map[string]string

func (m mapStore) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
func (m mapStore) Set(key, value string) error { m[key] = value; return nil }
func (m mapStore) Delete(key string) error     { delete(m, key); return nil }

func TestResolveBearer(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		secrets   mapStore
		wantToken string
		wantNil   bool
	}{
		{
			name:      "literal token passes through",
			cfg:       &Config{Type: TypeBearer, Token: "literal-token"},
			secrets:   mapStore{},
			wantToken: "literal-token",
		},
		{
			name:      "secret reference resolves to stored value",
			cfg:       &Config{Type: TypeBearer, Token: "${secret:corp-repo}"},
			secrets:   mapStore{"corp-repo": "s3cret"},
			wantToken: "s3cret",
		},
		{
			name:      "missing secret leaves reference unresolved",
			cfg:       &Config{Type: TypeBearer, Token: "${secret:missing}"},
			secrets:   mapStore{},
			wantToken: "${secret:missing}",
		},
		{
			name:      "env reference is left for the fetch layer",
			cfg:       &Config{Type: TypeBearer, Token: "${env:REPO_TOKEN}"},
			secrets:   mapStore{},
			wantToken: "${env:REPO_TOKEN}",
		},
		{
			name:    "none config resolves to nil",
			cfg:     &Config{Type: TypeNone},
			secrets: mapStore{},
			wantNil: true,
		},
		{
			name:    "absent config resolves to nil",
			cfg:     nil,
			secrets: mapStore{},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.secrets)
			got := r.Resolve("corp-repo", tt.cfg)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil config, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected resolved config, got nil")
			}
			if got.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", got.Token, tt.wantToken)
			}
		})
	}
}

func TestResolveBasicPassword(t *testing.T) {
	secrets := mapStore{"gitlab-pass": "hunter2"}
	r := NewResolver(secrets)

	cfg := &Config{Type: TypeBasic, Username: "alice", Password: "${secret:gitlab-pass}"}
	got := r.Resolve("gitlab", cfg)
	if got == nil {
		t.Fatal("expected resolved config")
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, want alice", got.Username)
	}
	if got.Password != "hunter2" {
		t.Errorf("Password = %q, want hunter2", got.Password)
	}
	// The input must not be mutated.
	if cfg.Password != "${secret:gitlab-pass}" {
		t.Errorf("input config mutated: %q", cfg.Password)
	}
}

func TestRefPatterns(t *testing.T) {
	if got := SecretRef("${secret:my-key}"); got != "my-key" {
		t.Errorf("SecretRef = %q, want my-key", got)
	}
	if got := SecretRef("plain"); got != "" {
		t.Errorf("SecretRef(plain) = %q, want empty", got)
	}
	if got := EnvRef("${env:MY_VAR}"); got != "MY_VAR" {
		t.Errorf("EnvRef = %q, want MY_VAR", got)
	}
	if got := EnvRef("${secret:x}"); got != "" {
		t.Errorf("EnvRef(secret ref) = %q, want empty", got)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	if err := s.Set("repo-a", "tok-a"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := s.Get("repo-a"); !ok || v != "tok-a" {
		t.Fatalf("Get = %q, %v; want tok-a, true", v, ok)
	}

	// A fresh store instance must read the persisted file.
	s2 := NewFileStore(dir)
	if v, ok := s2.Get("repo-a"); !ok || v != "tok-a" {
		t.Fatalf("reloaded Get = %q, %v; want tok-a, true", v, ok)
	}

	if err := s2.Delete("repo-a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s2.Get("repo-a"); ok {
		t.Fatal("secret still present after delete")
	}

	// Deleting an absent key is not an error.
	if err := s2.Delete("never-set"); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}
}
