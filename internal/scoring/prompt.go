package scoring

import "fmt"

// PromptVersion tags every persisted assessment with the prompt that
// produced it, so scores from different prompt revisions are never compared
// as equals.
const PromptVersion = "v1.0"

const systemPrompt = `You are an expert HR screening assistant. Your job is to evaluate a candidate's resume against a specific job description and provide a structured assessment.

Rules:
- Score from 0-100 based on fit to the job requirements
- Be specific: cite exact resume lines when noting strengths or weaknesses
- Do not penalize for formatting -- focus on substance
- If the resume is unclear or incomplete, note it but do not assume the worst
- Never include protected characteristics (age, gender, race, religion, etc.) in your reasoning
- Output ONLY valid JSON matching the specified structure. No markdown, no extra text.`

const userPromptTemplate = `## Job Description
Title: %s

Requirements:
%s

## Candidate Resume
%s

## Instructions
Evaluate this candidate against the job description above. Return your assessment as JSON with this exact structure:

{
  "score": <integer 0-100>,
  "strengths": [
    {"point": "<specific strength>", "evidence": "<quote or reference from resume>"}
  ],
  "weaknesses": [
    {"point": "<specific gap>", "evidence": "<what's missing or mismatched>"}
  ],
  "reasoning": "<2-3 sentence overall assessment explaining the score>",
  "experience_match": "<none|partial|strong>",
  "skills_match": "<none|partial|strong>"
}`

// BuildPrompt renders the system and user prompts for one scoring call.
func BuildPrompt(jobTitle, jobDescription, resumeText string) (system, user string) {
	user = fmt.Sprintf(userPromptTemplate, jobTitle, jobDescription, resumeText)
	return systemPrompt, user
}
