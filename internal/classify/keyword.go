// Package classify assigns category labels to newly created jobs.
package classify

import (
	"context"
	"regexp"
	"strings"
)

// DefaultCategory is used when no rule matches or a classifier fails.
const DefaultCategory = "Other IT roles"

// Categories is the closed set of labels the keyword rules can produce.
var Categories = []string{
	"Software Developer (Frontend)",
	"Software Developer (Backend)",
	"Software Developer (Full-stack)",
	"Data Analyst",
	"Data Scientist",
	"Data Engineer",
	"DevOps Engineer",
	"Cloud Engineer",
	"QA Engineer",
	"Test Engineer",
	"Security Engineer",
	"IT Support",
	"System Administrator",
	"Product Manager",
	"Project Manager",
	DefaultCategory,
}

type rule struct {
	category string
	pattern  *regexp.Regexp
}

// newRule compiles keywords into one case-insensitive word-boundary pattern.
func newRule(category string, keywords ...string) rule {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	return rule{
		category: category,
		pattern:  regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Order matters: the first matching rule wins.
var defaultRules = []rule{
	newRule("Data Engineer", "data engineer", "etl", "data pipeline", "data platform"),
	newRule("Data Scientist", "data scientist", "machine learning", "ml engineer"),
	newRule("Data Analyst", "data analyst", "analytics", "analyst", "business intelligence", "bi developer"),
	newRule("Security Engineer", "security", "cyber", "pentest", "penetration tester", "soc analyst"),
	newRule("Software Developer (Frontend)", "frontend", "front-end", "front end", "react", "angular", "vue"),
	newRule("Software Developer (Backend)", "backend", "back-end", "back end", "api", "server"),
	newRule("Software Developer (Full-stack)", "full stack", "fullstack", "full-stack"),
	newRule("DevOps Engineer", "devops", "sre", "site reliability", "platform engineer", "kubernetes", "docker"),
	newRule("Cloud Engineer", "cloud", "aws", "azure", "gcp"),
	newRule("QA Engineer", "qa", "quality assurance", "quality"),
	newRule("Test Engineer", "test", "tester", "testing"),
	newRule("System Administrator", "system administrator", "systems administrator", "sysadmin"),
	newRule("IT Support", "support", "helpdesk", "help desk", "service desk", "admin"),
	newRule("Product Manager", "product manager", "product owner"),
	newRule("Project Manager", "project manager", "delivery manager", "scrum master"),
	newRule("Software Developer (Full-stack)", "developer", "programmer", "software engineer", "coder"),
}

// Keyword classifies by ordered keyword rules over the title, falling back
// to the description when the title matches nothing.
type Keyword struct {
	rules    []rule
	fallback string
}

// NewKeyword returns a keyword classifier using the built-in rules.
func NewKeyword() *Keyword {
	return &Keyword{rules: defaultRules, fallback: DefaultCategory}
}

// Classify returns the first matching category or DefaultCategory.
func (k *Keyword) Classify(_ context.Context, title, description string) string {
	if c, ok := k.match(title); ok {
		return c
	}
	if c, ok := k.match(description); ok {
		return c
	}
	return k.fallback
}

func (k *Keyword) match(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, r := range k.rules {
		if r.pattern.MatchString(text) {
			return r.category, true
		}
	}
	return "", false
}
