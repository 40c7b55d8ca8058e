package entity

// VectorRecord is one embedded content chunk stored in a shard file.
type VectorRecord struct {
	ContentID string    `json:"contentId"`
	ChunkID   string    `json:"chunkId"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	Vector    []float64 `json:"vector"`
}

// Snippet formats the record the way it is handed to the model.
func (r *VectorRecord) Snippet() string {
	return r.Topic + "\n" + r.Content
}

// RetrievalResult maps contentId to a "{topic}\n{content}" snippet.
type RetrievalResult map[string]string

// Match is a record that passed the similarity threshold.
type Match struct {
	ContentID  string  `json:"content_id"`
	ChunkID    string  `json:"chunk_id"`
	Topic      string  `json:"topic"`
	Similarity float64 `json:"similarity"`
	Shard      string  `json:"shard"`
}
