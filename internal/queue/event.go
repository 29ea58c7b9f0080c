// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

import "time"

// TicketCreatedEvent is published when a betting slip is stored.  It carries
// enough context for downstream consumers to log or feed analytics without
// querying the primary database.
type TicketCreatedEvent struct {
	TicketID  uint64    `json:"ticket_id"`
	Owner     string    `json:"owner"`
	BetIDs    []uint64  `json:"bet_ids"`
	BetAmount float64   `json:"bet_amount"`
	Odd       float64   `json:"odd"`
	CreatedAt time.Time `json:"created_at"`
}
