package domain

import "time"

// Post is a single board message. CreatedAt is assigned by the store.
type Post struct {
	ID        int64     `json:"id,omitempty"`
	Username  string    `json:"username"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// TopicID is the key of the single topic row.
const TopicID = 1

// Topic holds the board subject line.
type Topic struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// Board is the state rendered for a request: posts newest-first plus the topic.
type Board struct {
	Posts []Post
	Topic string
}
