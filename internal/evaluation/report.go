package evaluation

import (
	"encoding/json"
	"os"

	"github.com/spigell/hh-resume-fit/internal/matcher"
	"github.com/spigell/hh-resume-fit/internal/segmenter"
)

// Source tells whether a keyword match was produced by the heuristic or the AI assessor.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceAI        Source = "ai"
)

type Report struct {
	Job              JobSummary       `json:"job"`
	Candidate        CandidateSummary `json:"candidate"`
	Match            MatchSummary     `json:"match"`
	DetailedAnalysis []matcher.Entry  `json:"detailed_analysis"`
}

type JobSummary struct {
	Summary          string          `json:"job_summary"`
	Grade            segmenter.Level `json:"job_grade"`
	Requirements     []string        `json:"requirements"`
	NiceToHave       []string        `json:"nice_to_have"`
	Responsibilities []string        `json:"responsibilities"`
}

type CandidateSummary struct {
	Summary   string          `json:"candidate_summary"`
	Grade     segmenter.Level `json:"candidate_grade"`
	KeySkills []string        `json:"key_skills"`
	// Experience holds the resume lines detected as work history.
	Experience []string `json:"experience"`
}

type MatchSummary struct {
	OverallMatch        int              `json:"overall_match"`
	GradeFit            matcher.GradeFit `json:"grade_fit"`
	Chances             matcher.Chance   `json:"chances"`
	Strengths           []string         `json:"strengths"`
	Weaknesses          []string         `json:"weaknesses"`
	MissingRequirements []string         `json:"missing_requirements"`
	NiceToHaveMatched   []string         `json:"nice_to_have_matched"`
	Recommendations     []string         `json:"recommendations"`
}

// KeywordMatch is the coarse keyword comparison of a resume and a job.
type KeywordMatch struct {
	Score           int              `json:"match_score"`
	Overlap         []string         `json:"overlap_keywords"`
	Missing         []string         `json:"missing_keywords"`
	Summary         string           `json:"summary"`
	GradeFit        matcher.GradeFit `json:"grade_fit"`
	Chances         matcher.Chance   `json:"chances"`
	Recommendations []string         `json:"recommendations"`
	Source          Source           `json:"source"`
}

// ResumeReview is the ATS readiness of a resume.
type ResumeReview struct {
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Highlights  []string `json:"highlights"`
	Experience  []string `json:"experience"`
	Source      Source   `json:"source"`
}

type CoverLetter struct {
	Text   string `json:"cover_letter"`
	Source Source `json:"source"`
}

// DumpToTmpFile writes the report as indented JSON to a new temp file and returns its path.
func (r *Report) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "match_report_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}
