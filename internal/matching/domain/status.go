package domain

import "fmt"

// MatchStatus tracks what the agent did with a match.
type MatchStatus string

const (
	MatchStatusMatched     MatchStatus = "matched"
	MatchStatusSent        MatchStatus = "sent"
	MatchStatusNotRelevant MatchStatus = "not_relevant"
)

var matchStatusSynonyms = map[string]MatchStatus{
	"matched":      MatchStatusMatched,
	"הותאם":        MatchStatusMatched,
	"sent":         MatchStatusSent,
	"נשלח":         MatchStatusSent,
	"not_relevant": MatchStatusNotRelevant,
	"not relevant": MatchStatusNotRelevant,
	"לא רלוונטי":   MatchStatusNotRelevant,
}

func ParseMatchStatus(raw string) (MatchStatus, error) {
	if s, ok := matchStatusSynonyms[normalizeTag(raw)]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown match status %q", raw)
}
