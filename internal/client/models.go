package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query     string   `json:"q"`
	Languages []string `json:"languages"`
	Page      int      `json:"page"`
}

// SearchResult is one message returned by the search service.
type SearchResult struct {
	MessageID   MessageID `json:"message_id"`
	Date        string    `json:"date"`
	Sender      string    `json:"sender"`
	SenderType  string    `json:"sender_type"`
	SenderColor string    `json:"sender_color,omitempty"` // hex without '#'
	Content     string    `json:"content"`
	PostURL     string    `json:"post_url,omitempty"`
}

// SearchResponse is the success body of POST /search. Error is set by
// services that report failures inside a 2xx body.
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results,omitempty"`
	TotalPages   int            `json:"total_pages"`
	Page         int            `json:"page"`
	Error        string         `json:"error,omitempty"`
}

// TranslateRequest is the body of POST /translate.
type TranslateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

// TranslateResponse is the body returned by POST /translate.
type TranslateResponse struct {
	TranslatedText *string `json:"translated_text,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// ErrorResponse is the failure body both endpoints use.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageID is a message id as sent by the service, which may encode it as
// a JSON number or string.
type MessageID string

func (id *MessageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = MessageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("message_id: %w", err)
	}
	*id = MessageID(n.String())
	return nil
}
