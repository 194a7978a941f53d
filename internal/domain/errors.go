package domain

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks upstream data-source failures (unreachable host,
// non-success status). The orchestrator absorbs it into an empty branch.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrSummarizationUnavailable marks LLM backend failures (unreachable,
// quota exhausted, misconfigured). Enrichment degrades to sentinel text.
var ErrSummarizationUnavailable = errors.New("summarization unavailable")

// ValidationError rejects a malformed request before the pipeline runs. It is
// the only failure surfaced to the caller as an error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Sentinel text substituted for unavailable AI output. Every summary field in
// a digest is non-empty; these strings communicate what went missing.
const (
	SentinelNotSpecified       = "Not specified in abstract."
	SentinelSummaryUnavailable = "Summary unavailable due to API limits."
	SentinelReferToAbstract    = "Refer to the abstract for details."
	SentinelNoPapers           = "No papers found for this topic and timeframe."
	SentinelNoArticles         = "No articles found for this topic and timeframe."
	SentinelExecutiveFailed    = "Executive summary generation failed. Please review the individual items below."
	SentinelResearchFailed     = "Research failed."
)
