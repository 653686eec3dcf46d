package scan

import (
	"fmt"
	"strings"

	"riskscan/internal/domain/entity"
)

// maxPromptBody caps the document text sent to the judge, in runes.
const maxPromptBody = 4000

const classifyTemplate = `You are an adverse media screening analyst.
Screened entity: %s

Article
Title: %s
Source: %s (%s)
Published: %s
Text:
%s

Decide whether the article is about the screened entity and whether it reports an adverse event
(litigation, regulatory action, fraud, sanctions, criminal charges, safety or data incidents, misconduct).
Reply with a single JSON object and nothing else:
{"isRelevant": bool, "isAdverse": bool, "riskTypes": [string], "severity": "None"|"Low"|"Medium"|"High"|"Critical",
 "riskScore": integer 0-100, "summary": "one sentence", "risk_event_slug": "short-kebab-case-id-of-the-underlying-event"}
Articles about the same underlying event must get the same risk_event_slug.`

const briefTemplate = `You are writing an executive risk brief on %s.
Adverse findings, most severe first:
%s
%s
Write 3 to 4 sentences of plain prose for a compliance officer. Lead with the most severe item,
mention the entity by name, do not use bullet points or headings.`

func classifyPrompt(doc entity.Document, query string) string {
	published := "unknown"
	if !doc.PublishedAt.IsZero() {
		published = doc.PublishedAt.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf(classifyTemplate,
		query,
		doc.Title,
		doc.SourceName, doc.SourceDomain,
		published,
		truncateRunes(doc.Body, maxPromptBody))
}

func briefPrompt(query string, findings []entity.Cluster, history string) string {
	var b strings.Builder
	for i, c := range findings {
		v := c.Representative.Verdict
		fmt.Fprintf(&b, "%d. %s (%s, severity %s, score %d)\n",
			i+1, c.Representative.Document.Title, c.Representative.Document.SourceName, v.Severity, v.RiskScore)
	}
	if len(findings) == 0 {
		b.WriteString("(none in current coverage)\n")
	}

	hist := ""
	if strings.TrimSpace(history) != "" {
		hist = "Historical context:\n" + truncateRunes(history, maxPromptBody) + "\n"
	}
	return fmt.Sprintf(briefTemplate, query, b.String(), hist)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
