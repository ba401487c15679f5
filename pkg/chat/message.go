package chat

import "time"

// Status tracks a user message through its delivery lifecycle. Bot messages
// carry no status.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusError     Status = "error"
)

func validStatus(s Status) bool {
	switch s {
	case StatusSending, StatusSent, StatusDelivered, StatusError:
		return true
	}
	return false
}

// ConversationState labels the booking-flow stage the backend reports. The
// store records it verbatim; transitions are driven entirely by the backend,
// there is no state machine on this side.
type ConversationState string

const (
	StateGatheringInfo            ConversationState = "GATHERING_INFO"
	StateGatheringNames           ConversationState = "GATHERING_NAMES"
	StateAwaitingClassSelection   ConversationState = "AWAITING_CLASS_SELECTION"
	StateAwaitingConfirmation     ConversationState = "AWAITING_CONFIRMATION"
	StateSearchInProgress         ConversationState = "SEARCH_IN_PROGRESS"
	StateFlightSelection          ConversationState = "FLIGHT_SELECTION"
	StateAwaitingPaymentSelection ConversationState = "AWAITING_PAYMENT_SELECTION"
	StateAwaitingPayment          ConversationState = "AWAITING_PAYMENT"
	StateAwaitingUSDCPayment      ConversationState = "AWAITING_USDC_PAYMENT"
	StateAwaitingCircleLayer      ConversationState = "AWAITING_CIRCLE_LAYER_PAYMENT"
	StateBookingConfirmed         ConversationState = "BOOKING_CONFIRMED"
)

// Message is one entry in the conversation log.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status,omitempty"`
}

// Patch is a partial message update. Nil fields are left untouched.
type Patch struct {
	Text   *string
	Status *Status
}
