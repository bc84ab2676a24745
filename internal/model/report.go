package model

// Report is the complete persona report for one user.
// Its text form is produced by the report package.
type Report struct {
	Username string `json:"username"`

	Summary Section `json:"summary"` // Executive summary
	Persona Section `json:"persona"` // Comprehensive persona

	Sources []CorpusEntry `json:"sources"` // Every cited entry, ascending index

	Partial     bool   `json:"partial"`                // Built from incomplete activity
	PartialNote string `json:"partial_note,omitempty"` // Why the activity is incomplete

	Stats    Stats  `json:"stats"`
	Provider string `json:"provider,omitempty"` // groq, openai, anthropic, ollama
	Model    string `json:"model,omitempty"`
}

// Section is one rendered generator output with its citations
type Section struct {
	Title     string     `json:"title"`
	Text      string     `json:"text"` // Rendered text with citation lines
	Citations []Citation `json:"citations,omitempty"`
	Dropped   []int      `json:"dropped,omitempty"` // Unresolved marker indices
}

// Stats records how the corpus behind a report was assembled
type Stats struct {
	Items       int  `json:"items"`        // Items returned by the coordinator
	Fetched     int  `json:"fetched"`      // New items fetched this run
	FromCache   bool `json:"from_cache"`   // Served without remote calls
	Included    int  `json:"included"`     // Items included in the corpus
	Truncated   int  `json:"truncated"`    // Items dropped by the corpus budget
	CorpusChars int  `json:"corpus_chars"` // Size of the corpus text
}

// CitedCount returns the number of distinct sources cited by the report
func (r *Report) CitedCount() int {
	return len(r.Sources)
}
