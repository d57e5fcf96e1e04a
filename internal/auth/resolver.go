package auth

import "regexp"

// Type discriminates the credential variants a repository config can
// carry.
type Type string

// Credential variants.
const (
	TypeNone   Type = "none"
	TypeBearer Type = "bearer"
	TypeBasic  Type = "basic"
)

// Config describes how to authenticate against a catalog repository.
// Token and Password may be literal values or one of the two indirection
// forms (${secret:KEY}, ${env:VAR}); Username is always literal.
type Config struct {
	Type     Type   `yaml:"type" json:"type" mapstructure:"type"`
	Token    string `yaml:"token,omitempty" json:"token,omitempty" mapstructure:"token"`
	Username string `yaml:"username,omitempty" json:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" json:"password,omitempty" mapstructure:"password"`
}

var (
	secretRefPattern = regexp.MustCompile(`^\$\{secret:(.+)\}$`)
	envRefPattern    = regexp.MustCompile(`^\$\{env:(.+)\}$`)
)

// SecretRef returns the KEY of a ${secret:KEY} reference, or "" if the
// value is not a secret reference.
func SecretRef(value string) string {
	if m := secretRefPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return ""
}

// EnvRef returns the VAR of an ${env:VAR} reference, or "" if the value
// is not an environment reference.
func EnvRef(value string) string {
	if m := envRefPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return ""
}

// Resolver substitutes secret-store references in repository auth
// configs. Environment references are deliberately left in place for the
// fetch layer to substitute at request time, so resolved configs that
// end up in debug output never carry credentials read from the
// environment.
type Resolver struct {
	secrets SecretStore
}

// NewResolver returns a Resolver backed by the given secret store.
func NewResolver(secrets SecretStore) *Resolver {
	return &Resolver{secrets: secrets}
}

// Resolve returns a copy of cfg with ${secret:KEY} references replaced
// by stored values. It returns nil for absent or "none" configs. A
// referenced secret that is missing leaves the field untouched: the
// request proceeds unauthenticated and the server decides.
func (r *Resolver) Resolve(repoID string, cfg *Config) *Config {
	if cfg == nil || cfg.Type == TypeNone || cfg.Type == "" {
		return nil
	}

	resolved := *cfg

	if cfg.Type == TypeBearer && cfg.Token != "" {
		if key := SecretRef(cfg.Token); key != "" {
			if stored, ok := r.secrets.Get(key); ok {
				resolved.Token = stored
			}
		}
	}

	if cfg.Type == TypeBasic && cfg.Password != "" {
		if key := SecretRef(cfg.Password); key != "" {
			if stored, ok := r.secrets.Get(key); ok {
				resolved.Password = stored
			}
		}
	}

	return &resolved
}
