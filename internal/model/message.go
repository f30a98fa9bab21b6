package model

import "time"

// Message is one entry in a conversation. CorrelationID is assigned by the
// sending client to track an optimistic entry until reconciliation; the
// backend does not echo it, so it never leaves the process.
type Message struct {
	Content       string
	Direction     Direction
	SentAt        time.Time
	CorrelationID string
}

// Conversation is the ordered message history between one admin and one
// student, identified by their token pair. Message order is insertion order.
// The client only ever holds a cached read-through copy; the backend owns the
// records.
type Conversation struct {
	AdminToken   string
	StudentToken string
	Messages     []Message
}
