package report

import "strings"

// Category buckets every observed module. Each module lands in exactly one.
type Category string

const (
	CategoryBuiltin    Category = "builtin"
	CategoryFramework  Category = "framework"
	CategoryDependency Category = "dependency"
	CategoryApp        Category = "app"
)

// DefaultFrameworkMarkers are the URL substrings identifying
// framework-internal packages. Projects on another framework can override
// these from .bootprof.yaml.
var DefaultFrameworkMarkers = []string{
	"/node_modules/@adonisjs/",
	"/node_modules/@poppinss/",
}

// Categorize assigns a module URL to its category by literal substring and
// prefix matching only; it never touches the filesystem.
func Categorize(url string, frameworkMarkers []string) Category {
	if IsBuiltin(url) {
		return CategoryBuiltin
	}
	if frameworkMarkers == nil {
		frameworkMarkers = DefaultFrameworkMarkers
	}
	for _, marker := range frameworkMarkers {
		if strings.Contains(url, marker) {
			return CategoryFramework
		}
	}
	if strings.Contains(url, "/node_modules/") {
		return CategoryDependency
	}
	return CategoryApp
}

// IsBuiltin reports whether a URL names a runtime built-in or virtual
// module rather than code on disk.
func IsBuiltin(url string) bool {
	return strings.HasPrefix(url, "node:") ||
		strings.HasPrefix(url, "builtin:") ||
		!strings.Contains(url, "/")
}

// PackageName extracts the human package name from a dependency URL: the
// one or two path segments following the rightmost package-store marker.
// The rightmost marker handles nested virtual-store layouts, where the real
// package directory sits inside .pnpm/<hash>/node_modules/. First-party
// files group under the synthetic "app" bucket.
func PackageName(url string) string {
	idx := strings.LastIndex(url, "/node_modules/")
	if idx == -1 {
		return "app"
	}
	rest := url[idx+len("/node_modules/"):]
	segments := strings.Split(rest, "/")
	if len(segments) == 0 || segments[0] == "" {
		return "app"
	}
	if strings.HasPrefix(segments[0], "@") && len(segments) > 1 {
		return segments[0] + "/" + segments[1]
	}
	return segments[0]
}

// RolePattern maps a structural role to the URL patterns that identify it.
type RolePattern struct {
	Role     string   `yaml:"role"`
	Patterns []string `yaml:"patterns"`
}

// DefaultRoles is the ordered role table for first-party files. Evaluated
// top to bottom, first match wins.
var DefaultRoles = []RolePattern{
	{Role: "controller", Patterns: []string{"_controller.", "/controllers/"}},
	{Role: "middleware", Patterns: []string{"_middleware.", "/middleware/"}},
	{Role: "service", Patterns: []string{"_service.", "/services/"}},
	{Role: "validator", Patterns: []string{"_validator.", "/validators/"}},
	{Role: "model", Patterns: []string{"_model.", "/models/"}},
	{Role: "provider", Patterns: []string{"_provider.", "/providers/"}},
	{Role: "route", Patterns: []string{"/routes.", "/start/routes", "/routes/"}},
	{Role: "config", Patterns: []string{"/config/"}},
}

// RolesWith prepends project-specific patterns to the built-in table. The
// table is evaluated in order, so the extra entries win on overlap. An empty
// extra slice yields nil, which Role reads as the defaults.
func RolesWith(extra []RolePattern) []RolePattern {
	if len(extra) == 0 {
		return nil
	}
	return append(append([]RolePattern{}, extra...), DefaultRoles...)
}

// Role classifies a first-party URL against an ordered pattern table.
// A nil table means DefaultRoles; no match means "other".
func Role(url string, table []RolePattern) string {
	if table == nil {
		table = DefaultRoles
	}
	for _, entry := range table {
		for _, pattern := range entry.Patterns {
			if strings.Contains(url, pattern) {
				return entry.Role
			}
		}
	}
	return "other"
}
