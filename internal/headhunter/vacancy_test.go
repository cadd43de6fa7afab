package headhunter

import "testing"

func TestVacancyTarget(t *testing.T) {
	v := &Vacancy{
		ID:           "1",
		Name:         "Go Developer",
		AlternateURL: "https://hh.ru/vacancy/1",
		Area:         Named{Name: "Moscow"},
		Salary:       &Salary{From: 300000, Currency: "RUR"},
		Description:  "<p>Build <strong>services</strong></p><ul><li>Go</li><li>Kafka &amp; Redis</li></ul>",
		KeySkills:    []Named{{Name: "Go"}, {Name: "PostgreSQL"}},
	}
	v.Employer.Name = "Acme"

	target := v.Target()

	if target.Title != "Go Developer" || target.Company != "Acme" || target.Location != "Moscow" {
		t.Fatalf("unexpected target header: %+v", target)
	}
	if target.Salary != "from 300000 RUR" {
		t.Fatalf("unexpected salary %q", target.Salary)
	}
	want := "Build services\nGo\nKafka & Redis\nKey skills: Go, PostgreSQL"
	if target.Description != want {
		t.Fatalf("unexpected description:\n%s\nwant:\n%s", target.Description, want)
	}
}

func TestVacancyTargetFallsBackToSnippet(t *testing.T) {
	v := &Vacancy{Name: "SRE"}
	v.Snipet.Requirement = "Experience with <highlighttext>Kubernetes</highlighttext>"
	v.Snipet.Responsibility = "Keep clusters healthy"

	target := v.Target()
	if target.Description != "Experience with Kubernetes\nKeep clusters healthy" {
		t.Fatalf("unexpected description %q", target.Description)
	}
	if target.Salary != "" {
		t.Fatalf("expected no salary, got %q", target.Salary)
	}
}

func TestLabel(t *testing.T) {
	v := &Vacancy{Name: "Go Developer", Area: Named{Name: "Remote"}, Salary: &Salary{From: 1, To: 2, Currency: "USD"}}
	v.Employer.Name = "Acme"

	if got := v.Label(); got != "Go Developer | Acme | Remote | 1-2 USD" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestFindByID(t *testing.T) {
	vacancies := &Vacancies{Items: []*Vacancy{{ID: "1"}, {ID: "2"}}}
	if vacancies.FindByID("2") == nil {
		t.Fatalf("expected to find vacancy 2")
	}
	if vacancies.FindByID("3") != nil {
		t.Fatalf("did not expect to find vacancy 3")
	}
	if vacancies.Len() != 2 {
		t.Fatalf("expected 2 vacancies, got %d", vacancies.Len())
	}
}
