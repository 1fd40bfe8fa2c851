package ranking

import (
	"testing"

	"github.com/google/uuid"

	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
)

func TestRank_ScoreDescending(t *testing.T) {
	results := []*repository.ScreeningResult{
		{ResumeID: uuid.New(), Score: 40},
		{ResumeID: uuid.New(), Score: 95},
		{ResumeID: uuid.New(), Score: 95},
		{ResumeID: uuid.New(), Score: 60},
	}
	firstNinetyFive := results[1].ResumeID
	secondNinetyFive := results[2].ResumeID

	Rank(results)

	scores := make([]int, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	expected := []int{95, 95, 60, 40}
	for i := range expected {
		if scores[i] != expected[i] {
			t.Fatalf("expected order %v, got %v", expected, scores)
		}
	}

	// Tied scores must keep submission order.
	if results[0].ResumeID != firstNinetyFive || results[1].ResumeID != secondNinetyFive {
		t.Error("tied results did not preserve submission order")
	}
}

func TestRank_StableAcrossRepeatedCalls(t *testing.T) {
	results := []*repository.ScreeningResult{
		{ResumeID: uuid.New(), Score: 70},
		{ResumeID: uuid.New(), Score: 70},
		{ResumeID: uuid.New(), Score: 70},
	}
	Rank(results)

	order := []uuid.UUID{results[0].ResumeID, results[1].ResumeID, results[2].ResumeID}

	Rank(results)
	for i, r := range results {
		if r.ResumeID != order[i] {
			t.Fatal("repeated ranking changed the order of tied results")
		}
	}
}

func TestRank_Empty(t *testing.T) {
	Rank(nil)
	Rank([]*repository.ScreeningResult{})
}
