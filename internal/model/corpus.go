package model

// CorpusEntry pairs a citation index with the item it stands for.
// Index is stable for the lifetime of one analysis run.
type CorpusEntry struct {
	Index int    `json:"index"`
	Item  Item   `json:"item"`
	Text  string `json:"text"` // Truncated text shown to the generator
}

// Citation ties a trait text span to the corpus entries it cites
type Citation struct {
	Trait   string `json:"trait"`             // Line text with markers removed
	Indices []int  `json:"indices"`           // Resolved corpus indices
	Dropped []int  `json:"dropped,omitempty"` // Indices that did not resolve
}
