package types

const DefaultUserID = "anonymous"

// VoiceInput is the body of POST /process-voice.
type VoiceInput struct {
	Text   string  `json:"text"`
	UserID *string `json:"user_id,omitempty"`
}

// User returns the caller id, falling back to DefaultUserID when absent.
func (v VoiceInput) User() string {
	if v.UserID == nil {
		return DefaultUserID
	}
	return *v.UserID
}

// VoiceResponse is the success body of POST /process-voice.
type VoiceResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}
