package domain

import (
	"slices"
	"strings"
)

// Platform scopes.
const (
	ScopeLinksRead       = "links.read"
	ScopeLinksWrite      = "links.write"
	ScopeTagsRead        = "tags.read"
	ScopeTagsWrite       = "tags.write"
	ScopeDomainsRead     = "domains.read"
	ScopeDomainsWrite    = "domains.write"
	ScopeFoldersRead     = "folders.read"
	ScopeFoldersWrite    = "folders.write"
	ScopeAnalyticsRead   = "analytics.read"
	ScopePartnersRead    = "partners.read"
	ScopePartnersWrite   = "partners.write"
	ScopeWorkspacesRead  = "workspaces.read"
	ScopeWorkspacesWrite = "workspaces.write"
	ScopeUserRead        = "user.read"
)

// ScopeCatalog lists every scope a client may be granted.
var ScopeCatalog = []string{
	ScopeLinksRead,
	ScopeLinksWrite,
	ScopeTagsRead,
	ScopeTagsWrite,
	ScopeDomainsRead,
	ScopeDomainsWrite,
	ScopeFoldersRead,
	ScopeFoldersWrite,
	ScopeAnalyticsRead,
	ScopePartnersRead,
	ScopePartnersWrite,
	ScopeWorkspacesRead,
	ScopeWorkspacesWrite,
	ScopeUserRead,
}

// ParseScope splits raw on spaces, commas and plus signs, trims each token, drops
// empty tokens and removes duplicates keeping the first occurrence.
func ParseScope(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ',' || r == '+' || r == '\t' || r == '\n' || r == '\r'
	})

	scopes := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		token := strings.TrimSpace(field)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		scopes = append(scopes, token)
	}
	return scopes
}

// JoinScope serializes scopes the way they appear in token responses.
func JoinScope(scopes []string) string {
	return strings.Join(scopes, " ")
}

// ScopeResolver validates requested scopes against the catalog and a client's allowed
// set, and injects the baseline scope at issuance.
type ScopeResolver struct {
	catalog  map[string]struct{}
	baseline string
}

// NewScopeResolver creates a resolver over catalog. The baseline scope is always part of
// the catalog.
func NewScopeResolver(catalog []string, baseline string) *ScopeResolver {
	known := make(map[string]struct{}, len(catalog)+1)
	for _, scope := range catalog {
		known[scope] = struct{}{}
	}
	if baseline != "" {
		known[baseline] = struct{}{}
	}
	return &ScopeResolver{catalog: known, baseline: baseline}
}

// Baseline returns the scope granted to every token.
func (r *ScopeResolver) Baseline() string {
	return r.baseline
}

// IsKnown reports whether scope belongs to the catalog.
func (r *ScopeResolver) IsKnown(scope string) bool {
	_, ok := r.catalog[scope]
	return ok
}

// Validate checks each scope against the catalog only. It is used when registering clients.
func (r *ScopeResolver) Validate(scopes []string) error {
	var offending []string
	for _, scope := range scopes {
		if !r.IsKnown(scope) {
			offending = append(offending, scope)
		}
	}
	if len(offending) > 0 {
		return NewInvalidScopeError(offending)
	}
	return nil
}

// Resolve parses raw and checks every token against the catalog and the client's
// allowed scopes. The baseline scope is implicitly allowed. The result does not
// contain the baseline unless it was requested.
func (r *ScopeResolver) Resolve(raw string, allowed []string) ([]string, error) {
	requested := ParseScope(raw)

	var offending []string
	for _, scope := range requested {
		if !r.IsKnown(scope) {
			offending = append(offending, scope)
			continue
		}
		if scope != r.baseline && !slices.Contains(allowed, scope) {
			offending = append(offending, scope)
		}
	}
	if len(offending) > 0 {
		return nil, NewInvalidScopeError(offending)
	}
	return requested, nil
}

// Grant returns scopes with the baseline appended when missing.
func (r *ScopeResolver) Grant(scopes []string) []string {
	granted := slices.Clone(scopes)
	if r.baseline != "" && !slices.Contains(granted, r.baseline) {
		granted = append(granted, r.baseline)
	}
	return granted
}
