package techstack

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/amishk599/jobtrack/internal/model"
)

func TestExtract(t *testing.T) {
	e := NewExtractor()
	desc := `We are looking for a Senior Full Stack Developer.
	- 5+ years experience with Python, Django, and React
	- Strong knowledge of AWS, Docker, and Kubernetes
	- Experience with PostgreSQL and Redis, some C# and .NET
	- CI/CD pipelines using GitHub Actions`

	got := e.Extract(desc)
	want := []string{".NET", "AWS", "C#", "CI/CD", "Django", "Docker", "GitHub", "GitHub Actions",
		"Kubernetes", "PostgreSQL", "Python", "React", "Redis"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() =\n%v\nwant\n%v", got, want)
	}
}

func TestExtractWordBoundaries(t *testing.T) {
	e := NewExtractor()
	// "Going" and "Rusty" must not register as Go or Rust; "R" must not match
	// inside words.
	if got := e.Extract("Going forward, our Rusty old Ruby codebase"); !reflect.DeepEqual(got, []string{"Ruby"}) {
		t.Errorf("Extract() = %v, want [Ruby]", got)
	}
	if got := e.Extract("   "); got != nil {
		t.Errorf("blank text should produce nil, got %v", got)
	}
}

type fakeSkillStore struct {
	jobs   []model.Job
	set    map[int64][]string
	failID int64
}

func (f *fakeSkillStore) ListUnenriched(_ context.Context, limit int) ([]model.Job, error) {
	if limit > 0 && limit < len(f.jobs) {
		return f.jobs[:limit], nil
	}
	return f.jobs, nil
}

func (f *fakeSkillStore) SetSkills(_ context.Context, id int64, skills []string) error {
	if id == f.failID {
		return errors.New("disk full")
	}
	if f.set == nil {
		f.set = make(map[int64][]string)
	}
	f.set[id] = skills
	return nil
}

func TestEnricherRun(t *testing.T) {
	store := &fakeSkillStore{
		jobs: []model.Job{
			{ID: 1, Title: "Go Developer", Description: "Go, gRPC and Kafka"},
			{ID: 2, Title: "Barista", Description: "Coffee"},
			{ID: 3, Title: "DBA", Description: "PostgreSQL"},
		},
		failID: 3,
	}
	e := NewEnricher(store, NewExtractor(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	res, err := e.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res != (EnrichResult{Scanned: 3, Enriched: 1, Failed: 1}) {
		t.Errorf("result = %+v", res)
	}
	if !reflect.DeepEqual(store.set[1], []string{"Go", "Kafka", "gRPC"}) {
		t.Errorf("skills for job 1 = %v", store.set[1])
	}
	if _, ok := store.set[2]; ok {
		t.Error("job without matches should not be written")
	}
}
