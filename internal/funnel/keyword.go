package funnel

import "strings"

// Keyword classifies the body of an inbound message.
type Keyword int

const (
	KeywordNone Keyword = iota
	KeywordStop
	KeywordHelp
	KeywordDone
)

// Carrier-mandated opt-out vocabulary. Matching is exact on the whole
// trimmed, uppercased body, never substring.
var stopKeywords = map[string]struct{}{
	"STOP":        {},
	"CANCEL":      {},
	"END":         {},
	"QUIT":        {},
	"UNSUBSCRIBE": {},
	"STOPALL":     {},
}

// ClassifyKeyword matches the trimmed, uppercased message body against the
// recognized keywords. Keyword checks take precedence over media checks, so
// a STOP with an attached image is still an opt-out.
func ClassifyKeyword(text string) Keyword {
	upper := strings.ToUpper(strings.TrimSpace(text))

	if _, ok := stopKeywords[upper]; ok {
		return KeywordStop
	}

	switch upper {
	case "HELP":
		return KeywordHelp
	case "DONE":
		return KeywordDone
	}

	return KeywordNone
}
