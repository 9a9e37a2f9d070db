package services

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/prepwise/backend/models"

	"github.com/ledongthuc/pdf"
)

// ResumeParser extracts a structured profile from an uploaded resume PDF.
// The parsed skills feed question generation; everything else is surfaced
// back to the client.
type ResumeParser struct{}

func NewResumeParser() *ResumeParser {
	return &ResumeParser{}
}

var knownSkills = []string{
	"python", "java", "c++", "c#", "javascript", "typescript", "go", "rust",
	"html", "css", "react", "angular", "vue", "node", "django", "flask",
	"spring", "sql", "mysql", "postgresql", "mongodb", "redis",
	"aws", "azure", "gcp", "docker", "kubernetes", "git", "linux",
	"machine learning", "deep learning", "data science", "nlp",
	"tensorflow", "pytorch", "pandas", "numpy",
	"communication", "leadership", "teamwork", "problem solving",
}

var educationKeywords = []string{
	"b.tech", "btech", "b.e", "m.tech", "mtech", "bachelor", "master",
	"phd", "mba", "bsc", "msc", "bca", "mca", "diploma", "degree",
	"university", "college", "institute",
}

var experienceKeywords = []string{
	"intern", "internship", "engineer", "developer", "analyst",
	"manager", "consultant", "worked", "experience", "project",
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[\s\-]?)?\d{10}`)
)

// Parse reads the PDF bytes and extracts skills, education and experience
// lines, and contact details.
func (p *ResumeParser) Parse(data []byte) (*models.ResumeData, error) {
	text, err := extractPDFText(data)
	if err != nil {
		return nil, err
	}

	resume := &models.ResumeData{
		Skills:     matchSkills(text),
		Education:  matchLines(text, educationKeywords),
		Experience: matchLines(text, experienceKeywords),
		Contact: models.ContactInfo{
			Email: emailPattern.FindString(text),
			Phone: strings.TrimSpace(phonePattern.FindString(text)),
		},
	}

	slog.Info("Parsed resume",
		"skills", len(resume.Skills),
		"education_lines", len(resume.Education),
		"experience_lines", len(resume.Experience))
	return resume, nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var b strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages, keep what we can.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}
	return text, nil
}

func matchSkills(text string) []string {
	lower := strings.ToLower(text)
	var skills []string
	for _, skill := range knownSkills {
		if strings.Contains(lower, skill) {
			skills = append(skills, skill)
		}
	}
	return skills
}

// matchLines returns the distinct lines mentioning any of the keywords,
// capped to keep payloads small.
func matchLines(text string, keywords []string) []string {
	const maxLines = 10

	var matched []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		lower := strings.ToLower(line)
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				matched = append(matched, line)
				seen[line] = true
				break
			}
		}
		if len(matched) >= maxLines {
			break
		}
	}
	return matched
}
