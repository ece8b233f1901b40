package filter

import (
	"strings"

	"github.com/amishk599/jobtrack/internal/model"
)

// ActiveJobs narrows the active-job listing. Category and Source match
// exactly; Location is a substring; Search looks at title, company and
// description. Text matching is case-insensitive. Empty fields match all.
type ActiveJobs struct {
	Category string
	Location string
	Search   string
	Source   string
}

// Match reports whether job passes the filter. Inactive jobs never match.
func (f ActiveJobs) Match(job model.Job) bool {
	if !job.IsActive {
		return false
	}
	if f.Category != "" && job.Category != f.Category {
		return false
	}
	if f.Source != "" && job.Source != f.Source {
		return false
	}
	if f.Location != "" && !containsFold(job.Location, f.Location) {
		return false
	}
	if f.Search != "" {
		if !containsFold(job.Title, f.Search) &&
			!containsFold(job.Company, f.Search) &&
			!containsFold(job.Description, f.Search) {
			return false
		}
	}
	return true
}

// Where renders the filter as a SQL condition with ? placeholders. The
// condition always restricts to active jobs.
func (f ActiveJobs) Where() (string, []any) {
	conds := []string{"is_active = ?"}
	args := []any{true}

	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, f.Source)
	}
	if f.Location != "" {
		conds = append(conds, `LOWER(location) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Location))
	}
	if f.Search != "" {
		pat := likePattern(f.Search)
		conds = append(conds, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(company) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`)
		args = append(args, pat, pat, pat)
	}

	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}
