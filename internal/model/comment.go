package model

// Comment is one AI-generated code comment proposed for a file line.
type Comment struct {
	ID         string `json:"id"`
	FileName   string `json:"fileName"`
	LineNumber int    `json:"lineNumber"`
	Content    string `json:"content"`
}

// CommentSession groups the comments of one generation run.
type CommentSession struct {
	SessionID string    `json:"sessionId"`
	Comments  []Comment `json:"comments"`
}

// ApplyResult is returned when comments were applied and pushed.
type ApplyResult struct {
	Message   string `json:"message"`
	CommitURL string `json:"commitUrl"`
}
