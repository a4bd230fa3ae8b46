package interpretation

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/tarotlab/tarot-engine/pkg/models"
)

// Interpretation kinds used in cache keys.
const (
	KindReading   = "reading"
	KindDailyCard = "daily_card"
)

// CanonicalKey builds the order-independent request description behind a
// fingerprint. Cards are sorted so the same draw always yields the same key.
func CanonicalKey(cards []models.DrawnCard, topic models.Topic, spreadType, question, kind string) string {
	triples := make([]string, 0, len(cards))
	for _, c := range cards {
		triples = append(triples, c.Card.ID+":"+string(c.Orientation)+":"+strconv.Itoa(c.Position.Position))
	}
	sort.Strings(triples)

	questionHash := ""
	if q := NormalizeQuestion(question); q != "" {
		sum := sha256.Sum256([]byte(q))
		questionHash = hex.EncodeToString(sum[:8])
	}

	return strings.Join([]string{
		strings.Join(triples, ","),
		"topic=" + string(topic),
		"spread=" + spreadType,
		"kind=" + kind,
		"q=" + questionHash,
	}, "|")
}

// Fingerprint is the SHA-256 hex digest of the canonical key.
func Fingerprint(cards []models.DrawnCard, topic models.Topic, spreadType, question, kind string) string {
	sum := sha256.Sum256([]byte(CanonicalKey(cards, topic, spreadType, question, kind)))
	return hex.EncodeToString(sum[:])
}
