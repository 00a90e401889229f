package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const claimAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CaseNumber formats the human-readable number of the seq-th case of the
// year. The random suffix keeps numbers unique when two cases race for the
// same sequence value.
func CaseNumber(now time.Time, seq int) string {
	return fmt.Sprintf("C-%d-%04d-%s", now.Year(), seq, randomHex(4))
}

// EvidenceNumber returns a fresh evidence number.
func EvidenceNumber(now time.Time) string {
	return fmt.Sprintf("EV-%d-%s", now.Year(), randomHex(8))
}

// RewardCode returns a fresh claim code.
func RewardCode(now time.Time) string {
	id := uuid.New()
	var b strings.Builder
	for _, c := range id[:5] {
		b.WriteByte(claimAlphabet[int(c)%len(claimAlphabet)])
	}
	return fmt.Sprintf("RWD-%s-%s", now.Format("20060102"), b.String())
}

func randomHex(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(s[:n])
}
