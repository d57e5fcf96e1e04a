// Package repourl maps repository descriptors and artifact paths to
// fetchable raw-content URLs. Pure functions, no I/O.
package repourl

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL reports a malformed or unusable repository URL.
var ErrInvalidURL = errors.New("invalid repository URL")

// Kind identifies the hosting flavor of a catalog repository.
type Kind string

// Supported repository kinds.
const (
	KindGitHub  Kind = "github"
	KindGitLab  Kind = "gitlab"
	KindGeneric Kind = "generic"
)

// DefaultBranch is used when a repository descriptor omits the branch.
const DefaultBranch = "main"

// Repo describes where a catalog's artifacts live.
type Repo struct {
	Kind    Kind
	BaseURL string
	Branch  string
}

// ParseKind converts a manifest repository type string to a Kind,
// defaulting unknown values to generic.
func ParseKind(s string) Kind {
	switch strings.ToLower(s) {
	case string(KindGitHub):
		return KindGitHub
	case string(KindGitLab):
		return KindGitLab
	default:
		return KindGeneric
	}
}

// Classify determines the repository kind from a URL's hostname.
// github.com maps to github; gitlab.com or a self-hosted "gitlab"
// hostname marker maps to gitlab; everything else is generic.
func Classify(rawURL string) Kind {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return KindGeneric
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "github.com"):
		return KindGitHub
	case strings.Contains(host, "gitlab"):
		return KindGitLab
	default:
		return KindGeneric
	}
}

// ResolveArtifactURL computes the raw-content URL for an artifact path
// inside the repository.
func ResolveArtifactURL(repo Repo, artifactPath string) (string, error) {
	branch := repo.Branch
	if branch == "" {
		branch = DefaultBranch
	}
	path := strings.TrimPrefix(strings.ReplaceAll(artifactPath, "\\", "/"), "/")

	switch repo.Kind {
	case KindGitHub:
		org, name, err := githubOrgRepo(repo.BaseURL)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", org, name, branch, path), nil

	case KindGitLab:
		base, err := normalizeBase(repo.BaseURL)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s/-/raw/%s/%s", base, branch, path), nil

	default:
		base, err := normalizeBase(repo.BaseURL)
		if err != nil {
			return "", err
		}
		return base + "/" + path, nil
	}
}

// githubOrgRepo extracts the organization and repository name from a
// github.com URL such as https://github.com/org/repo(.git).
func githubOrgRepo(baseURL string) (string, string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q is missing org/repo", ErrInvalidURL, baseURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func normalizeBase(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}
	return strings.TrimRight(baseURL, "/"), nil
}
