package scan

import (
	"regexp"
	"strings"
	"unicode"

	"riskscan/internal/domain/entity"
)

var (
	// noisePattern matches pricing, advertising and market-move headlines.
	noisePattern = regexp.MustCompile(`(?i)\b(shares?|stocks?|price target|dips?|surges?|rall(y|ies)|soars?|slump|earnings call|deals?|discounts?|coupons?|sponsored|promo(tion)?|advert(isement)?|buy now|sale)\b`)

	// adversePattern matches language that signals an adverse event.
	adversePattern = regexp.MustCompile(`(?i)\b(lawsuits?|sue[sd]?|suing|fined?|fines|probes?|investigat(ion|ions|es|ed|ing)|fraud(ulent)?|penalt(y|ies)|settle(s|d|ment)?|indict(ed|ment)?|charged|recalls?|sanction(s|ed)?|violations?|breach(es)?|scandal|brib(e|ery)|corrupt(ion)?|misconduct|class action|subpoena(s|ed)?|money laundering|embezzle(ment)?)\b`)
)

// isNoise reports whether a title reads as market or advertising chatter
// with no adverse language.
func isNoise(title string) bool {
	return noisePattern.MatchString(title) && !adversePattern.MatchString(title)
}

// hasAdverseLanguage reports whether text contains adverse-event wording.
func hasAdverseLanguage(text string) bool {
	return adversePattern.MatchString(text)
}

// mentionsEntity reports whether any significant word of query appears as a
// whole word in the document title or body. Legal-form suffixes ("Inc",
// "Ltd") never count, and words shorter than three characters are ignored
// unless the query has nothing else.
func mentionsEntity(doc entity.Document, query string) bool {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return true
	}
	words := make(map[string]bool)
	for _, w := range splitWords(doc.Title + " " + doc.Body) {
		words[w] = true
	}
	for _, t := range tokens {
		if words[t] {
			return true
		}
	}
	return false
}

var legalForms = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "corp": true, "corporation": true, "company": true,
	"plc": true, "gmbh": true, "group": true, "holdings": true, "the": true, "and": true,
}

func queryTokens(query string) []string {
	var long, short []string
	for _, f := range splitWords(query) {
		switch {
		case legalForms[f]:
		case len([]rune(f)) >= 3:
			long = append(long, f)
		default:
			short = append(short, f)
		}
	}
	if len(long) == 0 {
		return short
	}
	return long
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// noiseVerdict is assigned without a judge call to titles that isNoise accepts.
func noiseVerdict(doc entity.Document) entity.Verdict {
	return entity.Verdict{
		IsRelevant: true,
		IsAdverse:  false,
		Severity:   entity.SeverityNone,
		RiskScore:  0,
		Summary:    "Market or promotional coverage with no adverse indicators.",
		ClusterTag: doc.Title,
	}
}

// offTopicVerdict is assigned in heuristic mode to documents that never
// mention the entity.
func offTopicVerdict() entity.Verdict {
	return entity.Verdict{IsRelevant: false, Severity: entity.SeverityNone}
}

// degradedVerdict keeps a document visible when its analysis failed.
func degradedVerdict(doc entity.Document) entity.Verdict {
	return entity.Verdict{
		IsRelevant:   true,
		IsAdverse:    false,
		RiskTypes:    []string{"Manual Review"},
		Severity:     entity.SeverityLow,
		RiskScore:    0,
		Summary:      "Analysis unavailable - manual review required",
		ClusterTag:   doc.Title,
		ManualReview: true,
	}
}
