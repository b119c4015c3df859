package domain

// State is the persisted extraction cursor.
type State struct {
	LastFetched          string `json:"last_fetched,omitempty"`
	Transactions         Params `json:"transactions,omitempty"`
	AggregatedByCreative Params `json:"aggregatedByCreative,omitempty"`
	AggregatedReport     Params `json:"aggregatedReport,omitempty"`
	Programmes           Params `json:"programmes,omitempty"`
}

// IsEmpty reports whether s carries no extraction progress.
func (s *State) IsEmpty() bool {
	return s == nil || s.LastFetched == ""
}
