package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agenthub-labs/agenthub/internal/auth"
	"github.com/agenthub-labs/agenthub/internal/httpx"
	"github.com/agenthub-labs/agenthub/internal/manifest"
	"github.com/agenthub-labs/agenthub/internal/store"
)

// typeSubdirs maps artifact types to the directory, relative to the
// install root, their files land in. Profiles live outside the root so
// editors pick them up from .vscode.
var typeSubdirs = map[string]string{
	manifest.TypeChatmode:     "chatmodes",
	manifest.TypeInstructions: "instructions",
	manifest.TypePrompt:       "prompts",
	manifest.TypeTask:         "tasks",
	manifest.TypeProfile:      filepath.Join("..", ".vscode", "agent-hub", "profiles"),
	manifest.TypeAgent:        "agents",
}

// typeExtensions maps artifact types to the file extension written to
// disk, regardless of the extension in the catalog path.
var typeExtensions = map[string]string{
	manifest.TypeChatmode:     ".chatmode.md",
	manifest.TypeInstructions: ".md",
	manifest.TypePrompt:       ".md",
	manifest.TypeTask:         ".md",
	manifest.TypeProfile:      ".json",
	manifest.TypeAgent:        ".md",
}

// Result is the outcome of a single install or uninstall. Failures are
// carried in Error instead of being returned, so callers aggregating
// many artifacts never lose a partial batch to one bad file.
type Result struct {
	ArtifactID string
	Success    bool
	Path       string
	Error      string
}

// BatchResult aggregates a profile install.
type BatchResult struct {
	Succeeded int
	Failed    int
	Errors    []string
	Results   []Result
}

// Installer writes artifact files under an install root and records
// installations in the store.
type Installer struct {
	store       *store.Store
	fetcher     *httpx.Fetcher
	resolver    *auth.Resolver
	installRoot string
	logger      *slog.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithLogger sets the logger used for install activity.
func WithLogger(l *slog.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// New returns an Installer rooted at installRoot. resolver may be nil
// when no catalogs carry auth.
func New(st *store.Store, fetcher *httpx.Fetcher, resolver *auth.Resolver, installRoot string, opts ...Option) *Installer {
	i := &Installer{
		store:       st,
		fetcher:     fetcher,
		resolver:    resolver,
		installRoot: installRoot,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TargetPath returns the path an artifact of the given type and id
// installs to, relative to the install root.
func (i *Installer) TargetPath(artifactType, artifactID string) (string, error) {
	subdir, ok := typeSubdirs[artifactType]
	if !ok {
		return "", fmt.Errorf("unknown artifact type %q", artifactType)
	}
	return filepath.Join(i.installRoot, subdir, artifactID+typeExtensions[artifactType]), nil
}

// Install fetches the artifact's content, writes it to the type's
// target directory, and upserts the installation record. Repeated
// installs of the same artifact overwrite the file and keep a single
// record.
func (i *Installer) Install(ctx context.Context, artifact *store.Artifact, authCfg *auth.Config) Result {
	target, err := i.TargetPath(artifact.Type, artifact.ID)
	if err != nil {
		return i.failure(artifact.ID, err)
	}
	if artifact.SourceURL == "" {
		return i.failure(artifact.ID, fmt.Errorf("artifact %q has no source url", artifact.ID))
	}

	var resolved *auth.Config
	if i.resolver != nil {
		resolved = i.resolver.Resolve(artifact.CatalogID, authCfg)
	}
	content, err := i.fetcher.FetchText(ctx, artifact.SourceURL, httpx.Request{Auth: resolved})
	if err != nil {
		return i.failure(artifact.ID, fmt.Errorf("fetching content: %w", err))
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return i.failure(artifact.ID, fmt.Errorf("creating target directory: %w", err))
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return i.failure(artifact.ID, fmt.Errorf("writing file: %w", err))
	}

	if _, err := i.store.UpsertInstallation(store.Installation{
		ArtifactID:    artifact.ID,
		CatalogID:     artifact.CatalogID,
		Version:       artifact.Version,
		InstalledPath: target,
	}); err != nil {
		return i.failure(artifact.ID, fmt.Errorf("recording installation: %w", err))
	}

	i.logger.Info("installed artifact",
		"artifact", artifact.ID, "catalog", artifact.CatalogID,
		"version", artifact.Version, "path", target)
	return Result{ArtifactID: artifact.ID, Success: true, Path: target}
}

// Uninstall removes the installed file and the installation record. A
// file already deleted by hand is not an error.
func (i *Installer) Uninstall(catalogID, artifactID string) Result {
	inst, err := i.store.GetInstallation(catalogID, artifactID)
	if errors.Is(err, store.ErrNotFound) {
		return i.failure(artifactID, fmt.Errorf("artifact %q is not installed", artifactID))
	}
	if err != nil {
		return i.failure(artifactID, err)
	}

	if err := os.Remove(inst.InstalledPath); err != nil && !os.IsNotExist(err) {
		return i.failure(artifactID, fmt.Errorf("removing file: %w", err))
	}
	if err := i.store.DeleteInstallation(catalogID, artifactID); err != nil {
		return i.failure(artifactID, fmt.Errorf("removing installation record: %w", err))
	}

	i.logger.Info("uninstalled artifact", "artifact", artifactID, "catalog", catalogID)
	return Result{ArtifactID: artifactID, Success: true, Path: inst.InstalledPath}
}

// Update re-installs the artifact at its current catalog version. The
// installation record is refreshed in place.
func (i *Installer) Update(ctx context.Context, artifact *store.Artifact, authCfg *auth.Config) Result {
	return i.Install(ctx, artifact, authCfg)
}

// InstallProfile installs a profile artifact and every artifact it
// depends on. One failing dependency does not stop the rest.
func (i *Installer) InstallProfile(ctx context.Context, profile *store.Artifact, authCfg *auth.Config) BatchResult {
	var batch BatchResult
	batch.record(i.Install(ctx, profile, authCfg))

	for _, depID := range profile.Dependencies {
		dep, err := i.store.GetArtifact(profile.CatalogID, depID)
		if err != nil {
			batch.record(i.failure(depID, fmt.Errorf("dependency %q not in catalog", depID)))
			continue
		}
		batch.record(i.Install(ctx, dep, authCfg))
	}
	return batch
}

func (b *BatchResult) record(r Result) {
	b.Results = append(b.Results, r)
	if r.Success {
		b.Succeeded++
		return
	}
	b.Failed++
	b.Errors = append(b.Errors, fmt.Sprintf("%s: %s", r.ArtifactID, r.Error))
}

func (i *Installer) failure(artifactID string, err error) Result {
	i.logger.Warn("install operation failed", "artifact", artifactID, "error", err)
	return Result{ArtifactID: artifactID, Error: err.Error()}
}
