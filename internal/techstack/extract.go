// Package techstack pulls technology keywords out of job descriptions.
package techstack

import (
	"regexp"
	"sort"
	"strings"
)

// Keywords groups the recognised technologies by area.
var Keywords = map[string][]string{
	"programming_languages": {
		"Python", "Java", "JavaScript", "TypeScript", "C#", "C++", "Go", "Golang", "Rust",
		"PHP", "Ruby", "Swift", "Kotlin", "Scala", "R", "MATLAB", "Perl",
	},
	"frontend": {
		"React", "Vue", "Vue.js", "Angular", "Next.js", "Nuxt", "Svelte",
		"jQuery", "Bootstrap", "Tailwind", "Redux", "Webpack", "Vite", "HTML", "CSS", "SASS",
	},
	"backend": {
		"Django", "Flask", "FastAPI", "Spring Boot", "Spring", ".NET", "ASP.NET",
		"Node.js", "Express", "NestJS", "Rails", "Laravel", "Symfony", "Gin", "Echo",
	},
	"database": {
		"PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch", "SQL Server",
		"Oracle", "DynamoDB", "Cassandra", "Neo4j", "SQLite", "MariaDB", "Snowflake", "BigQuery",
	},
	"cloud": {
		"AWS", "Azure", "GCP", "Google Cloud", "Heroku", "DigitalOcean",
		"Lambda", "EC2", "S3", "CloudFront", "RDS", "ECS", "EKS",
	},
	"devops": {
		"Docker", "Kubernetes", "K8s", "Jenkins", "GitLab CI", "GitHub Actions",
		"CircleCI", "Terraform", "Ansible", "Chef", "Puppet", "Prometheus",
		"Grafana", "Datadog", "New Relic", "CI/CD",
	},
	"data_tools": {
		"Spark", "Hadoop", "Kafka", "Airflow", "Tableau", "Power BI",
		"Pandas", "NumPy", "Scikit-learn", "TensorFlow", "PyTorch", "Databricks", "dbt",
	},
	"version_control": {"Git", "GitHub", "GitLab", "Bitbucket", "SVN"},
	"methodologies": {
		"Agile", "Scrum", "Kanban", "DevOps", "TDD", "BDD",
		"Microservices", "REST API", "GraphQL", "gRPC",
	},
}

type matcher struct {
	name    string
	pattern *regexp.Regexp
}

// Extractor matches Keywords as whole words, case-insensitively.
type Extractor struct {
	matchers []matcher
}

// NewExtractor compiles Keywords.
func NewExtractor() *Extractor {
	seen := make(map[string]bool)
	var ms []matcher
	for _, group := range Keywords {
		for _, kw := range group {
			if seen[kw] {
				continue
			}
			seen[kw] = true
			ms = append(ms, matcher{name: kw, pattern: wordPattern(kw)})
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].name < ms[j].name })
	return &Extractor{matchers: ms}
}

// wordPattern builds a case-insensitive pattern for kw. Keywords that begin
// or end with punctuation (C#, .NET, C++) cannot use \b on that side.
func wordPattern(kw string) *regexp.Regexp {
	left, right := `\b`, `\b`
	if !isWordByte(kw[0]) {
		left = `(?:^|[^\w])`
	}
	if !isWordByte(kw[len(kw)-1]) {
		right = `(?:$|[^\w])`
	}
	return regexp.MustCompile(`(?i)` + left + regexp.QuoteMeta(kw) + right)
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// Extract returns the sorted, de-duplicated keywords found in text.
func (e *Extractor) Extract(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var found []string
	for _, m := range e.matchers {
		if m.pattern.MatchString(text) {
			found = append(found, m.name)
		}
	}
	return found
}
