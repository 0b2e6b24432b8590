package auth

import (
	"net/http"
	"strings"
)

// BypassPolicy decides which requests skip authentication entirely. Paths
// are relative to BasePath and match on whole segments, so "/news" covers
// "/news" and "/news/12" but not "/newsletter".
type BypassPolicy struct {
	BasePath          string
	AuthPaths         []string
	PublicGetPrefixes []string
}

// DefaultBypassPolicy returns the login/register/refresh endpoints plus the
// public read-only resources under basePath.
func DefaultBypassPolicy(basePath string) BypassPolicy {
	return BypassPolicy{
		BasePath:  basePath,
		AuthPaths: []string{"/auth/login", "/auth/register", "/auth/refresh"},
		PublicGetPrefixes: []string{
			"/courses", "/news", "/categories", "/articles",
			"/avatars", "/expert-reviews", "/reviews",
		},
	}
}

// Bypass reports whether a request with this method and path is exempt.
func (p BypassPolicy) Bypass(method, path string) bool {
	rel, ok := p.relative(path)
	if !ok {
		return false
	}
	for _, prefix := range p.AuthPaths {
		if underPrefix(rel, prefix) {
			return true
		}
	}
	if method != http.MethodGet {
		return false
	}
	for _, prefix := range p.PublicGetPrefixes {
		if underPrefix(rel, prefix) {
			return true
		}
	}
	return false
}

func (p BypassPolicy) relative(path string) (string, bool) {
	base := strings.TrimRight(p.BasePath, "/")
	if base == "" {
		return path, true
	}
	if !underPrefix(path, base) {
		return "", false
	}
	rel := strings.TrimPrefix(path, base)
	if rel == "" {
		rel = "/"
	}
	return rel, true
}

func underPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
