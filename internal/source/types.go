package source

// rawLine mirrors one line of an externally-produced JSONL usage log.
// Only the fields the engine consumes are declared; everything else in the
// record is ignored by the decoder.
type rawLine struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	CostUSD   *float64    `json:"costUSD"`
	Message   *rawMessage `json:"message"`
}

// rawMessage is the message envelope carrying token usage.
type rawMessage struct {
	Usage *rawUsage `json:"usage"`
}

// rawUsage holds token counts from the API response.
type rawUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// LineError records one undecodable line. The file keeps processing past
// it; a bad line never aborts the file.
type LineError struct {
	Line int
	Err  error
}
