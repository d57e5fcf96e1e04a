package manifest

// SupportedSchemaVersion is the manifest schema version this engine
// understands. Manifests declaring any other version fail sync
// validation.
const SupportedSchemaVersion = "1.0.0"

// Artifact type constants for the type discriminator field.
const (
	TypeChatmode     = "chatmode"
	TypeInstructions = "instructions"
	TypePrompt       = "prompt"
	TypeTask         = "task"
	TypeProfile      = "profile"
	TypeAgent        = "agent"
)

// ValidTypes contains all valid artifact type values.
var ValidTypes = []string{
	TypeChatmode,
	TypeInstructions,
	TypePrompt,
	TypeTask,
	TypeProfile,
	TypeAgent,
}

// Manifest is the top-level catalog document.
type Manifest struct {
	SchemaVersion string     `json:"schemaVersion"`
	Metadata      Metadata   `json:"metadata"`
	Artifacts     []Artifact `json:"artifacts"`
}

// Metadata describes the catalog itself.
type Metadata struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Author      string     `json:"author,omitempty"`
	Repository  Repository `json:"repository"`
	License     string     `json:"license,omitempty"`
}

// Repository locates the raw content the artifacts reference.
type Repository struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Branch string `json:"branch,omitempty"`
}

// Artifact is one installable unit advertised by a catalog.
type Artifact struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Path          string         `json:"path"`
	Version       string         `json:"version"`
	Category      string         `json:"category,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Keywords      []string       `json:"keywords,omitempty"`
	Language      []string       `json:"language,omitempty"`
	Framework     []string       `json:"framework,omitempty"`
	UseCase       []string       `json:"useCase,omitempty"`
	Difficulty    string         `json:"difficulty,omitempty"`
	Metadata      *ArtifactStats `json:"metadata,omitempty"`
	Author        string         `json:"author,omitempty"`
	Compatibility string         `json:"compatibility,omitempty"`
	Dependencies  []string       `json:"dependencies,omitempty"`
	EstimatedTime string         `json:"estimatedTime,omitempty"`
}

// ArtifactStats carries the optional popularity metadata used by search
// ranking.
type ArtifactStats struct {
	Rating      float64 `json:"rating,omitempty"`
	Downloads   int64   `json:"downloads,omitempty"`
	LastUpdated string  `json:"lastUpdated,omitempty"`
}
