package fingerprint

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNew_Deterministic(t *testing.T) {
	tenant := uuid.New()
	job := uuid.New()
	resume := uuid.New()
	desc := "Senior backend engineer, 5+ years Python and PostgreSQL."

	first, err := New(tenant, job, resume, desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := New(tenant, job, resume, desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("same inputs produced different keys: %s vs %s", first, second)
	}
}

func TestNew_KeyFormat(t *testing.T) {
	tenant := uuid.New()
	job := uuid.New()
	resume := uuid.New()

	key, err := New(tenant, job, resume, "description text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parts := strings.Split(key.String(), ":")
	if len(parts) != 6 {
		t.Fatalf("expected 6 key segments, got %d: %s", len(parts), key)
	}
	if parts[0] != "tenant" || parts[2] != "screen" {
		t.Errorf("unexpected key shape: %s", key)
	}
	if parts[1] != tenant.String() {
		t.Errorf("expected tenant segment %s, got %s", tenant, parts[1])
	}
	if parts[3] != job.String() || parts[4] != resume.String() {
		t.Errorf("expected job and resume segments in key, got %s", key)
	}
	if len(parts[5]) != 16 {
		t.Errorf("expected 16-char description hash, got %q", parts[5])
	}
}

func TestNew_DescriptionEditChangesKey(t *testing.T) {
	tenant := uuid.New()
	job := uuid.New()
	resume := uuid.New()

	before, err := New(tenant, job, resume, "Looking for a Go engineer.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Single character edit must invalidate every cached outcome for the job.
	after, err := New(tenant, job, resume, "Looking for a Go engineer!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if before == after {
		t.Error("editing the description did not change the fingerprint")
	}
}

func TestNew_DifferentTenantsDifferentKeys(t *testing.T) {
	job := uuid.New()
	resume := uuid.New()
	desc := "shared description"

	a, err := New(uuid.New(), job, resume, desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := New(uuid.New(), job, resume, desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a == b {
		t.Error("different tenants produced the same key")
	}
}

func TestNew_RejectsMissingIDs(t *testing.T) {
	if _, err := New(uuid.Nil, uuid.New(), uuid.New(), "desc"); err == nil {
		t.Error("expected error for missing tenant id")
	}
	if _, err := New(uuid.New(), uuid.New(), uuid.Nil, "desc"); err == nil {
		t.Error("expected error for missing resume id")
	}
}

func TestDescriptionHash(t *testing.T) {
	h := DescriptionHash("some job description")

	if len(h) != 16 {
		t.Errorf("expected 16-char hash, got %d chars", len(h))
	}
	if h != DescriptionHash("some job description") {
		t.Error("hash is not stable for identical input")
	}
	if h == DescriptionHash("some job descriptioN") {
		t.Error("hash did not change for edited input")
	}
}
