package types

import "time"

// AskRequest is the body of POST /ask. A missing prompt decodes to "".
type AskRequest struct {
	Prompt string `json:"prompt"`
}

// ChatExchange is one prompt/reply round trip. It lives for a single request.
type ChatExchange struct {
	Prompt  string
	Model   string
	Reply   string
	Err     error
	Elapsed time.Duration
}

// Body is the text returned to the browser: the reply, or the error in-band.
func (e ChatExchange) Body() string {
	if e.Err != nil {
		return "Error: " + e.Err.Error()
	}
	return e.Reply
}

type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}
