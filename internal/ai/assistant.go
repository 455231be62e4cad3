package ai

import (
	"context"
)

// Assessment is an LLM opinion on how well a resume fits a job description.
type Assessment struct {
	Score   int
	Overlap []string
	Missing []string
	Summary string
	Raw     string
}

type Assessor interface {
	Assess(ctx context.Context, resumeText, jobText string) (*Assessment, error)
}

// Review is an LLM opinion on how ready a resume is for applicant tracking systems.
type Review struct {
	Score       int
	Issues      []string
	Suggestions []string
	Highlights  []string
	Raw         string
}

// Reviewer rates a resume on its own.
type Reviewer interface {
	Review(ctx context.Context, resumeText string) (*Review, error)
}

// Writer drafts a cover letter for a resume and a job. tone may be empty.
type Writer interface {
	CoverLetter(ctx context.Context, resumeText, jobText, tone string) (string, error)
}
