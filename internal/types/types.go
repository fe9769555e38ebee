package types

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	MarkdownText   string `json:"markdown_text"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// Envelope wraps every /query outcome that reached the pipeline.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorDetail is returned for requests rejected before the pipeline runs.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// ExecutionFailure is the envelope data for a statement the engine rejected.
type ExecutionFailure struct {
	Error         string  `json:"error"`
	SQLState      *string `json:"sql_state"`
	Errno         *int    `json:"errno"`
	ExecutedQuery string  `json:"executed_query"`
}

// ConnectionFailure is the envelope data when no connection was available.
type ConnectionFailure struct {
	Error           string `json:"error"`
	ConnectionError bool   `json:"connection_error"`
}

// OllamaRequest represents the request payload for Ollama API
type OllamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options *OllamaOptions `json:"options,omitempty"`
}

// OllamaOptions carries model parameters.
type OllamaOptions struct {
	Temperature float64 `json:"temperature"`
}

// OllamaResponse represents the response from Ollama API
type OllamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}
