package models

// DocumentChunk is a unit of text sent to the vector store.
type DocumentChunk struct {
	Content string            `json:"content"`
	Source  string            `json:"source"`
	Index   int               `json:"index"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// IngestResult summarizes one processed upload.
type IngestResult struct {
	FileName      string `json:"fileName"`
	RawPath       string `json:"rawPath"`
	ProcessedPath string `json:"processedPath"`
	Characters    int    `json:"characters"`
	Cleaned       bool   `json:"cleaned"`
	ChunksIndexed int    `json:"chunksIndexed"`
}

// LibraryStats is the document/index overview.
type LibraryStats struct {
	RawFiles       int        `json:"rawFiles"`
	ProcessedFiles int        `json:"processedFiles"`
	Index          IndexStats `json:"index"`
}
