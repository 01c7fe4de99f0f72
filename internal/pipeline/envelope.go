package pipeline

import "github.com/leapstack-labs/surveygate/pkg/analyze"

// Envelope is the single response shape for query execution. Exactly one
// variant is populated: success carries data plus analysis, failure carries
// the error. The original query text is always present for traceability.
type Envelope struct {
	Success  bool                   `json:"success"`
	Data     []map[string]any       `json:"data"`
	Columns  []string               `json:"columns"`
	RowCount *int                   `json:"row_count"`
	Error    string                 `json:"error,omitempty"`
	Query    string                 `json:"query"`
	Analysis *analyze.QueryAnalysis `json:"analysis"`
}

// successEnvelope builds the success variant.
func successEnvelope(query string, data []map[string]any, columns []string, analysis *analyze.QueryAnalysis) *Envelope {
	count := len(data)
	return &Envelope{
		Success:  true,
		Data:     data,
		Columns:  columns,
		RowCount: &count,
		Query:    query,
		Analysis: analysis,
	}
}

// failureEnvelope builds the failure variant. analysis may be nil when the
// query never parsed.
func failureEnvelope(query, errMsg string, analysis *analyze.QueryAnalysis) *Envelope {
	return &Envelope{
		Success:  false,
		Error:    errMsg,
		Query:    query,
		Analysis: analysis,
	}
}

// AnalysisReport is the response shape for analysis-only requests: no store
// interaction, just parse, classify, analyze and format.
type AnalysisReport struct {
	Query          string                 `json:"query"`
	IsValidSelect  bool                   `json:"is_valid_select"`
	Analysis       *analyze.QueryAnalysis `json:"analysis"`
	FormattedQuery string                 `json:"formatted_query,omitempty"`
	Error          string                 `json:"error,omitempty"`
}
