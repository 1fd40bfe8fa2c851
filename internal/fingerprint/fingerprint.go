// Package fingerprint derives the cache and dedup keys that tie a screening
// outcome to the exact job text it was scored against.
//
// A fingerprint encodes the tenant, the job, the resume, and a short hash of
// the job description. Editing the description changes the hash, so every
// previously cached outcome for that job stops matching and simply ages out.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// descHashLen is how many hex characters of the description hash are kept in
// the key. 16 chars (64 bits) is plenty to detect any edit.
const descHashLen = 16

// Key identifies one (tenant, job, resume, description-version) scoring
// computation. Its string form is
// "tenant:{tenant}:screen:{job}:{resume}:{descHash}".
type Key string

// String returns the key in its canonical string form.
func (k Key) String() string {
	return string(k)
}

// DescriptionHash returns the short content hash of a job description.
// Any single-character edit to the description produces a different hash.
func DescriptionHash(description string) string {
	sum := sha256.Sum256([]byte(description))
	return hex.EncodeToString(sum[:])[:descHashLen]
}

// New derives the fingerprint for scoring one resume against one job.
// The same inputs always produce the same key, across processes and
// restarts. Tenant and resume ids must be set.
func New(tenantID, jobID, resumeID uuid.UUID, jobDescription string) (Key, error) {
	if tenantID == uuid.Nil {
		return "", fmt.Errorf("fingerprint: tenant id is required")
	}
	if resumeID == uuid.Nil {
		return "", fmt.Errorf("fingerprint: resume id is required")
	}

	key := fmt.Sprintf("tenant:%s:screen:%s:%s:%s",
		tenantID, jobID, resumeID, DescriptionHash(jobDescription))
	return Key(key), nil
}
