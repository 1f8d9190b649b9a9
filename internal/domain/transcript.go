package domain

// Transcript is one recognition event delivered by a speech capability.
// Interim results carry Final=false; a non-empty Error reports a
// recognition failure instead of text.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Final      bool    `json:"final"`
	Error      string  `json:"error,omitempty"`
}
