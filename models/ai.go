package models

// ChatRequest is the payload of POST /api/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

// Reply sources.
const (
	HandledByBooking   = "booking"
	HandledByRetrieval = "retrieval"
)

// BookingStatus is the booking view attached to every reply.
type BookingStatus struct {
	Active   bool            `json:"active"`
	Progress string          `json:"progress,omitempty"`
	Complete bool            `json:"complete"`
	Receipt  *BookingReceipt `json:"receipt,omitempty"`
}

// ChatReply is returned for every processed message.
type ChatReply struct {
	SessionID string         `json:"session_id"`
	Response  string         `json:"response"`
	HandledBy string         `json:"handled_by"`
	Booking   BookingStatus  `json:"booking"`
	Sources   []RankedResult `json:"sources,omitempty"`
}
