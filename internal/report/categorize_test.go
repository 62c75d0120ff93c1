package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		url  string
		want Category
	}{
		{"node:fs", CategoryBuiltin},
		{"node:path", CategoryBuiltin},
		{"builtin:crypto", CategoryBuiltin},
		{"file:///proj/node_modules/@adonisjs/core/index.js", CategoryFramework},
		{"file:///proj/node_modules/@poppinss/utils/index.js", CategoryFramework},
		{"file:///proj/node_modules/lodash/map.js", CategoryDependency},
		{"file:///proj/node_modules/@scope/pkg/index.js", CategoryDependency},
		{"file:///proj/app/users/users_controller.ts", CategoryApp},
		{"file:///proj/config/database.ts", CategoryApp},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Categorize(tc.url, nil), tc.url)
	}
}

func TestCategorizeCustomFrameworkMarkers(t *testing.T) {
	markers := []string{"/node_modules/@nestjs/"}
	got := Categorize("file:///p/node_modules/@nestjs/core/index.js", markers)
	assert.Equal(t, CategoryFramework, got)
	got = Categorize("file:///p/node_modules/@adonisjs/core/index.js", markers)
	assert.Equal(t, CategoryDependency, got)
}

func TestPackageName(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"file:///proj/node_modules/lodash/map.js", "lodash"},
		{"file:///proj/node_modules/@scope/name/lib/a.js", "@scope/name"},
		// Nested virtual store: the rightmost marker wins.
		{"file:///proj/node_modules/.pnpm/lodash@4.17.21/node_modules/lodash/map.js", "lodash"},
		{"file:///proj/node_modules/.pnpm/@scope+name@1.0.0/node_modules/@scope/name/a.js", "@scope/name"},
		{"file:///proj/app/users/users_service.ts", "app"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PackageName(tc.url), tc.url)
	}
}

func TestRoleFirstMatchWins(t *testing.T) {
	assert.Equal(t, "controller", Role("file:///p/app/users/users_controller.ts", nil))
	assert.Equal(t, "service", Role("file:///p/app/services/billing.ts", nil))
	assert.Equal(t, "model", Role("file:///p/app/models/user.ts", nil))
	assert.Equal(t, "config", Role("file:///p/config/database.ts", nil))
	assert.Equal(t, "other", Role("file:///p/app/helpers/strings.ts", nil))

	// A controller inside /services/ still matches controller first: the
	// table is ordered and evaluated top to bottom.
	assert.Equal(t, "controller", Role("file:///p/app/services/x_controller.ts", nil))
}
