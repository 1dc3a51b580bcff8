// Package alerts derives structured alerts from free-text analysis
// output. Alerts are computed on read and never stored.
package alerts

import (
	"strings"
	"unicode/utf8"

	"github.com/vigilops/vigil-backend/internal/store"
)

const messageLimit = 100

// Alert is a keyword-matched finding surfaced to end users.
type Alert struct {
	ID         string `json:"id"`
	CameraID   string `json:"cameraId"`
	CameraName string `json:"cameraName"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	Timestamp  int64  `json:"timestamp"`
}

// DefaultKeywords is the stock risk vocabulary. All entries alert at
// high severity; deployments can grade them via NewClassifier.
var DefaultKeywords = map[string]string{
	"threat":     "high",
	"violence":   "high",
	"suspicious": "high",
	"fire":       "high",
}

var severityRank = map[string]int{"low": 1, "medium": 2, "high": 3}

// rankOf orders severity labels. Labels outside the stock set are
// deployment-specific escalations and outrank it.
func rankOf(severity string) int {
	if r, ok := severityRank[severity]; ok {
		return r
	}
	return len(severityRank) + 1
}

// Classifier scans analysis text for a configured keyword-to-severity
// table.
type Classifier struct {
	keywords map[string]string
}

// NewClassifier builds a classifier from a keyword table. Keys are
// matched case-insensitively as substrings. A nil table means defaults.
func NewClassifier(keywords map[string]string) *Classifier {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	normalized := make(map[string]string, len(keywords))
	for k, sev := range keywords {
		normalized[strings.ToLower(k)] = sev
	}
	return &Classifier{keywords: normalized}
}

// Classify returns an alert for the record, or nil when no keyword
// matches. When several keywords match, the highest severity wins.
//
// The message is the first 100 characters of the analysis text with an
// ellipsis suffix; the suffix is appended even when nothing was
// truncated, matching the behavior the dashboard has always displayed.
func (c *Classifier) Classify(record store.AnalysisRecord) *Alert {
	lower := strings.ToLower(record.Analysis)

	matched := false
	severity := ""
	for keyword, sev := range c.keywords {
		if !strings.Contains(lower, keyword) {
			continue
		}
		if !matched || rankOf(sev) > rankOf(severity) {
			severity = sev
			matched = true
		}
	}
	if !matched {
		return nil
	}

	// Truncate on rune boundaries; analysis text is model output and
	// routinely carries accented letters and typographic quotes.
	message := record.Analysis
	if utf8.RuneCountInString(message) > messageLimit {
		message = string([]rune(message)[:messageLimit])
	}
	message += "..."

	return &Alert{
		ID:         "analysis-" + record.ID,
		CameraID:   record.CameraID,
		CameraName: record.CameraID,
		Message:    message,
		Severity:   severity,
		Timestamp:  record.Timestamp,
	}
}

// ClassifyAll filters a collection down to its alerts, preserving order.
func (c *Classifier) ClassifyAll(records []store.AnalysisRecord) []Alert {
	alerts := []Alert{}
	for _, record := range records {
		if alert := c.Classify(record); alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}
