package group

import "time"

// Group is a named broadcast scope with its own membership and message history.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsPrivate bool      `json:"isPrivate"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member binds a live connection to the display name it joined with.
type Member struct {
	ConnID   string `json:"connId"`
	Username string `json:"username"`
}

// Message is a single chat entry, owned by its group for the process lifetime.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary is the lobby view of a public group.
type Summary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MemberCount  int    `json:"memberCount"`
	MessageCount int    `json:"messageCount"`
}
