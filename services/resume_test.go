package services

import "testing"

const sampleResumeText = `Jane Candidate
jane.candidate@example.com | +91 9876543210

Education
B.Tech in Computer Science, Example University

Experience
Software Engineer Intern at Example Corp
Built a REST API project with Python and PostgreSQL

Skills
Python, Go, SQL, Docker, Machine Learning, Teamwork`

func TestMatchSkills(t *testing.T) {
	skills := matchSkills(sampleResumeText)

	want := map[string]bool{
		"python":           false,
		"go":               false,
		"sql":              false,
		"docker":           false,
		"machine learning": false,
		"teamwork":         false,
	}
	for _, skill := range skills {
		if _, ok := want[skill]; ok {
			want[skill] = true
		}
	}
	for skill, found := range want {
		if !found {
			t.Errorf("skill %q not detected", skill)
		}
	}
}

func TestMatchLines(t *testing.T) {
	education := matchLines(sampleResumeText, educationKeywords)
	if len(education) == 0 {
		t.Fatal("no education lines detected")
	}
	found := false
	for _, line := range education {
		if line == "B.Tech in Computer Science, Example University" {
			found = true
		}
	}
	if !found {
		t.Errorf("degree line missing from %v", education)
	}

	experience := matchLines(sampleResumeText, experienceKeywords)
	if len(experience) < 2 {
		t.Errorf("experience lines = %v, expected intern and project lines", experience)
	}
}

func TestMatchLinesDeduplicatesAndCaps(t *testing.T) {
	text := ""
	for i := 0; i < 30; i++ {
		text += "Worked as engineer on project\nWorked as engineer on project\nAnother engineer role line " + string(rune('a'+i)) + "\n"
	}

	lines := matchLines(text, experienceKeywords)
	if len(lines) > 10 {
		t.Errorf("lines = %d, expected cap of 10", len(lines))
	}

	seen := make(map[string]bool)
	for _, line := range lines {
		if seen[line] {
			t.Errorf("duplicate line %q", line)
		}
		seen[line] = true
	}
}

func TestContactExtraction(t *testing.T) {
	email := emailPattern.FindString(sampleResumeText)
	if email != "jane.candidate@example.com" {
		t.Errorf("email = %q", email)
	}

	phone := phonePattern.FindString(sampleResumeText)
	if phone == "" {
		t.Error("phone not detected")
	}
}

func TestExtractPDFTextRejectsGarbage(t *testing.T) {
	if _, err := extractPDFText([]byte("not a pdf at all")); err == nil {
		t.Error("expected error for non-PDF input")
	}
}
