package ratelimit

import (
	"net/http"
	"regexp"
	"strings"
)

type Category string

const (
	CategoryDefault  Category = "default"
	CategoryHealth   Category = "health"
	CategorySearch   Category = "search"
	CategoryUpload   Category = "upload"
	CategoryMemories Category = "memories"
	CategoryAuth     Category = "auth"
)

var Categories = []Category{
	CategoryDefault,
	CategoryHealth,
	CategorySearch,
	CategoryUpload,
	CategoryMemories,
	CategoryAuth,
}

func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

var healthPaths = map[string]bool{
	"/health":    true,
	"/healthz":   true,
	"/ready":     true,
	"/readiness": true,
	"/metrics":   true,
}

var authPath = regexp.MustCompile(`/auth(/|$)`)

var ingestionPath = regexp.MustCompile(`/(ingest|attachments?|files?)(/|$)`)

type categoryRule struct {
	matches  func(path, method string) bool
	category Category
}

// Evaluated in order; the first match wins. "search" must stay ahead of
// "/memories" because both can appear in one path.
var categoryRules = []categoryRule{
	{func(path, _ string) bool { return healthPaths[path] }, CategoryHealth},
	{func(path, _ string) bool { return authPath.MatchString(path) }, CategoryAuth},
	{func(path, _ string) bool { return strings.Contains(path, "search") }, CategorySearch},
	{func(path, method string) bool {
		return strings.Contains(path, "upload") ||
			(method == http.MethodPost && ingestionPath.MatchString(path))
	}, CategoryUpload},
	{func(path, _ string) bool { return strings.Contains(path, "/memories") }, CategoryMemories},
}

func ResolveCategory(path, method string) Category {
	method = strings.ToUpper(method)
	for _, rule := range categoryRules {
		if rule.matches(path, method) {
			return rule.category
		}
	}
	return CategoryDefault
}
