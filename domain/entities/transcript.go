package entities

// TranscriptWord is a single word of a provider transcript with millisecond
// timestamps. Ephemeral: produced by the transcription client, consumed once
// by the aligner.
type TranscriptWord struct {
	Text       string  `json:"text"`
	StartMs    int     `json:"start"`
	EndMs      int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Transcript is the terminal output of one transcription run.
type Transcript struct {
	Text  string           `json:"text"`
	Words []TranscriptWord `json:"words"`
}
