// Package scoring defines the structured assessment the generative model
// must return for one resume, the versioned prompts that request it, and the
// strict decode step that turns raw model output into a validated value.
package scoring

import (
	"fmt"
	"strings"
)

// MatchLevel grades how well one dimension of a resume lines up with a job.
type MatchLevel string

const (
	MatchNone    MatchLevel = "none"
	MatchPartial MatchLevel = "partial"
	MatchStrong  MatchLevel = "strong"
)

// Valid reports whether m is one of the three permitted levels.
func (m MatchLevel) Valid() bool {
	switch m {
	case MatchNone, MatchPartial, MatchStrong:
		return true
	}
	return false
}

// Finding is one cited strength or weakness: a claim about the candidate
// plus the resume evidence backing it.
type Finding struct {
	Point    string `json:"point"`
	Evidence string `json:"evidence"`
}

// Assessment is the structured output of one scoring invocation.
type Assessment struct {
	Score           int        `json:"score"`
	Strengths       []Finding  `json:"strengths"`
	Weaknesses      []Finding  `json:"weaknesses"`
	Reasoning       string     `json:"reasoning"`
	ExperienceMatch MatchLevel `json:"experience_match"`
	SkillsMatch     MatchLevel `json:"skills_match"`
}

// Validate checks the invariants every persisted assessment must satisfy:
// score in [0,100], both match levels in the permitted set, and every
// finding carrying a non-empty point and evidence.
func (a *Assessment) Validate() error {
	if a.Score < 0 || a.Score > 100 {
		return fmt.Errorf("score %d out of range [0,100]", a.Score)
	}
	if !a.ExperienceMatch.Valid() {
		return fmt.Errorf("invalid experience_match %q", a.ExperienceMatch)
	}
	if !a.SkillsMatch.Valid() {
		return fmt.Errorf("invalid skills_match %q", a.SkillsMatch)
	}
	if err := validateFindings("strengths", a.Strengths); err != nil {
		return err
	}
	if err := validateFindings("weaknesses", a.Weaknesses); err != nil {
		return err
	}
	return nil
}

func validateFindings(field string, findings []Finding) error {
	for i, f := range findings {
		if strings.TrimSpace(f.Point) == "" {
			return fmt.Errorf("%s[%d] has an empty point", field, i)
		}
		if strings.TrimSpace(f.Evidence) == "" {
			return fmt.Errorf("%s[%d] has an empty evidence", field, i)
		}
	}
	return nil
}
