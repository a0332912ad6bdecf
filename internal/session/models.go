package session

import "time"

// ChatMessage is one stored turn of a session. Role is fixed at append
// time and messages are never edited afterwards.
type ChatMessage struct {
	ID      string `json:"id"`
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatSession is a named conversation thread.
type ChatSession struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
}
