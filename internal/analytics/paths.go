package analytics

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ManifestBase strips the file name from a manifest path, leaving the run
// directory with a trailing slash. A bare file name yields "".
func ManifestBase(manifestPath string) string {
	p := strings.TrimPrefix(manifestPath, "/")
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i+1]
}

// ArtifactPath resolves an artifact's relative path against its manifest
// directory, producing a logical path under the data root.
func ArtifactPath(basePath, relativePath string) (string, error) {
	rel := strings.TrimPrefix(relativePath, "/")
	if err := validateRelative(rel); err != nil {
		return "", err
	}
	base := basePath
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + rel, nil
}

// validateRelative rejects empty paths, absolute URLs and traversal.
func validateRelative(p string) error {
	if p == "" {
		return fmt.Errorf("path is required")
	}
	if u, err := url.Parse(p); err != nil {
		return fmt.Errorf("malformed path")
	} else if u.Scheme != "" || u.Host != "" {
		return fmt.Errorf("path must be relative, got %q", p)
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return fmt.Errorf("path traversal not allowed")
		}
	}
	return nil
}

// Locator turns logical paths into URLs under the data root.
type Locator struct {
	base *url.URL
}

// NewLocator parses the data root. A trailing slash is added when missing so
// that relative resolution stays inside it.
func NewLocator(rawBase string) (*Locator, error) {
	if !strings.HasSuffix(rawBase, "/") {
		rawBase += "/"
	}
	base, err := url.Parse(rawBase)
	if err != nil {
		return nil, fmt.Errorf("invalid data base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("data base url must be absolute, got %q", rawBase)
	}
	return &Locator{base: base}, nil
}

// URL resolves a logical path. A leading slash is ignored.
func (l *Locator) URL(logicalPath string) (string, error) {
	rel := strings.TrimPrefix(logicalPath, "/")
	if err := validateRelative(rel); err != nil {
		return "", err
	}
	ref, err := url.Parse(rel)
	if err != nil {
		return "", fmt.Errorf("malformed path %q", logicalPath)
	}
	return l.base.ResolveReference(ref).String(), nil
}

// Base returns the data root URL.
func (l *Locator) Base() string {
	return l.base.String()
}

// Dir returns the URL of a logical directory, such as a run's base path.
func (l *Locator) Dir(logicalDir string) string {
	ref := &url.URL{Path: path.Clean("/" + logicalDir)}
	dir := strings.TrimPrefix(ref.Path, "/")
	if dir == "" || dir == "." {
		return l.base.String()
	}
	resolved := l.base.ResolveReference(&url.URL{Path: dir + "/"})
	return resolved.String()
}
