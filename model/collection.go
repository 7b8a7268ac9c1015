package model

// Collection is one retained result: the chosen item indices, their ids when
// the problem was built from a definition, the total value and the total cost.
type Collection struct {
	Rank    int      `json:"rank"`
	Items   []int    `json:"items"`
	ItemIDs []string `json:"item_ids,omitempty"`
	Value   float32  `json:"value"`
	Cost    float32  `json:"cost"`
}

// ExecutionSummary reports one execute call.
type ExecutionSummary struct {
	ExecutionID string           `json:"execution_id"`
	Problem     string           `json:"problem"`
	Culled      int              `json:"culled"`
	Retained    int              `json:"retained"`
	Counters    map[string]int64 `json:"counters"`
	TookMs      int64            `json:"took_ms"`
}

// ResultsPage is one page of ranked collections.
type ResultsPage struct {
	Problem     string       `json:"problem"`
	Total       int          `json:"total"`
	Offset      int          `json:"offset"`
	Limit       int          `json:"limit"`
	Collections []Collection `json:"collections"`
}
