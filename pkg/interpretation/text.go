package interpretation

import (
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tarotlab/tarot-engine/pkg/models"
)

var rankWords = map[int]string{
	1: "ace", 2: "two", 3: "three", 4: "four", 5: "five", 6: "six", 7: "seven",
	8: "eight", 9: "nine", 10: "ten", 11: "page", 12: "knight", 13: "queen", 14: "king",
}

// rankName is the display name of a minor arcana rank, e.g. "Seven" or "Knight".
func rankName(number int) string {
	if w, ok := rankWords[number]; ok {
		return title(w)
	}
	return strconv.Itoa(number)
}

// rankPlural pluralizes a rank name, e.g. "Sevens" or "Queens".
func rankPlural(number int) string {
	return inflection.Plural(rankName(number))
}

func suitName(s models.Suit) string {
	return title(string(s))
}

// NormalizeQuestion folds case and collapses whitespace so equivalent
// questions share a cache key.
func NormalizeQuestion(q string) string {
	return cases.Fold().String(strings.Join(strings.Fields(q), " "))
}

// title builds a fresh caser per call; casers carry state and are not safe
// for concurrent use.
func title(s string) string {
	return cases.Title(language.English).String(s)
}
