package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResponse marks model output that could not be decoded into a
// valid Assessment. Callers retry the invocation once on this error before
// giving up on the candidate.
var ErrInvalidResponse = errors.New("invalid model response")

// wireAssessment mirrors Assessment with a pointer score so a response that
// omits the score field entirely is caught instead of defaulting to 0.
type wireAssessment struct {
	Score           *int       `json:"score"`
	Strengths       []Finding  `json:"strengths"`
	Weaknesses      []Finding  `json:"weaknesses"`
	Reasoning       string     `json:"reasoning"`
	ExperienceMatch MatchLevel `json:"experience_match"`
	SkillsMatch     MatchLevel `json:"skills_match"`
}

// Decode parses raw model output into a validated Assessment. Markdown code
// fences are stripped first since models wrap JSON in them despite the
// prompt. Any parse or validation problem is reported as ErrInvalidResponse;
// nothing partial is ever returned.
func Decode(raw string) (*Assessment, error) {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" {
		return nil, fmt.Errorf("%w: empty output", ErrInvalidResponse)
	}

	var wire wireAssessment
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if wire.Score == nil {
		return nil, fmt.Errorf("%w: missing score", ErrInvalidResponse)
	}

	assessment := &Assessment{
		Score:           *wire.Score,
		Strengths:       wire.Strengths,
		Weaknesses:      wire.Weaknesses,
		Reasoning:       wire.Reasoning,
		ExperienceMatch: wire.ExperienceMatch,
		SkillsMatch:     wire.SkillsMatch,
	}
	if err := assessment.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return assessment, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag on the opening line.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
