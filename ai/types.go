package ai

// ChatRequest is the payload sent to the inference service's chat endpoint.
// CharacterID is the persona file handle, not a database id.
type ChatRequest struct {
	Message          string  `json:"message"`
	CharacterID      string  `json:"character_id"`
	CharacterInfo    string  `json:"character_info"`
	Emotion          string  `json:"emotion,omitempty"`
	EmotionIntensity float64 `json:"emotion_intensity"`
}

// ChatResponse is the inference service's reply envelope. An empty Response
// is valid.
type ChatResponse struct {
	Response         string    `json:"response"`
	ContextUsed      []any     `json:"context_used,omitempty"`
	SimilarityScores []float64 `json:"similarity_scores,omitempty"`
}

// EmbedRequest is the payload sent to the embedding endpoint.
type EmbedRequest struct {
	Content string `json:"content"`
}

// EmbedResponse carries the embedding vector for a text blob.
type EmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}
