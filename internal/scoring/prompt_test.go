package scoring

import (
	"strings"
	"testing"
)

func TestPromptVersion_Format(t *testing.T) {
	if !strings.HasPrefix(PromptVersion, "v") {
		t.Errorf("prompt version should start with 'v', got %s", PromptVersion)
	}
	if !strings.Contains(PromptVersion, ".") {
		t.Errorf("prompt version should contain a dot, got %s", PromptVersion)
	}
}

func TestBuildPrompt_SystemGuardrails(t *testing.T) {
	system, _ := BuildPrompt("Engineer", "desc", "resume")

	if !strings.Contains(strings.ToLower(system), "protected characteristics") {
		t.Error("system prompt is missing the bias guardrail")
	}
	if !strings.Contains(system, "JSON") {
		t.Error("system prompt does not demand JSON output")
	}
	if !strings.Contains(system, "ONLY") || !strings.Contains(system, "No markdown") {
		t.Error("system prompt does not forbid extra output")
	}
	if !strings.Contains(system, "0-100") {
		t.Error("system prompt is missing the scoring rubric range")
	}
}

func TestBuildPrompt_SubstitutesValues(t *testing.T) {
	_, user := BuildPrompt(
		"Senior Engineer",
		"5 years Python required",
		"Jane Doe, 7 years Python experience",
	)

	if !strings.Contains(user, "Senior Engineer") {
		t.Error("job title missing from user prompt")
	}
	if !strings.Contains(user, "5 years Python required") {
		t.Error("job description missing from user prompt")
	}
	if !strings.Contains(user, "Jane Doe") {
		t.Error("resume text missing from user prompt")
	}
}

func TestBuildPrompt_PreservesJSONTemplate(t *testing.T) {
	_, user := BuildPrompt("Test", "Test desc", "Test resume")

	for _, field := range []string{`"score"`, `"strengths"`, `"weaknesses"`, `"reasoning"`, `"experience_match"`, `"skills_match"`} {
		if !strings.Contains(user, field) {
			t.Errorf("user prompt is missing the %s field in its output template", field)
		}
	}
	if !strings.Contains(user, "none|partial|strong") {
		t.Error("user prompt is missing the match level enumeration")
	}
}
