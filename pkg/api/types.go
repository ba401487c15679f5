package api

import "encoding/json"

// Envelope is the response wrapper every backend endpoint uses.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`

	// Chat endpoints additionally return bot replies and the conversation
	// stage at the envelope level.
	Messages       []string `json:"messages,omitempty"`
	State          string   `json:"state,omitempty"`
	RequiresAction string   `json:"requiresAction,omitempty"`
}

// refreshResponse is the /auth/refresh payload. Unlike every other endpoint
// the tokens arrive at the top level, not nested under data. The backend
// contract fixes this asymmetry; do not "clean it up" client-side.
type refreshResponse struct {
	Success      bool   `json:"success"`
	JWT          string `json:"jwt"`
	RefreshToken string `json:"refresh_token"`
	Error        string `json:"error,omitempty"`
}

// DeviceInfo describes the device at registration time.
type DeviceInfo struct {
	DeviceID   string `json:"deviceId"`
	Platform   string `json:"platform"`
	Version    string `json:"version"`
	AppVersion string `json:"appVersion"`
	OSVersion  string `json:"osVersion,omitempty"`
	DeviceName string `json:"deviceName,omitempty"`
	ModelName  string `json:"modelName,omitempty"`
	IsDevice   bool   `json:"isDevice"`
}

// AuthPayload is the data object returned by register and login.
type AuthPayload struct {
	UserID       string `json:"user_id"`
	JWT          string `json:"jwt"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// PushDevice is the body for push-notification device registration.
type PushDevice struct {
	PushToken  string `json:"push_token"`
	Platform   string `json:"platform"`
	AppVersion string `json:"app_version"`
}

// IncomingMessage is a chat message fetched from the backend.
type IncomingMessage struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsUser    bool   `json:"is_user"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status,omitempty"`
}

// SendMessageResult carries the backend's reaction to a sent message.
type SendMessageResult struct {
	// Replies holds bot messages produced in response.
	Replies []string

	// State is the conversation stage reported by the backend, if any.
	State string

	// RequiresAction names a follow-up the UI must perform, if any.
	RequiresAction string
}

// Price is a monetary amount with currency.
type Price struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

// SegmentPoint is one end of a flight segment.
type SegmentPoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

// Segment is a single flight leg.
type Segment struct {
	Departure   SegmentPoint `json:"departure"`
	Arrival     SegmentPoint `json:"arrival"`
	CarrierCode string       `json:"carrierCode"`
	Number      string       `json:"number"`
}

// Itinerary is an ordered sequence of segments.
type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

// FlightOffer is a bookable flight option.
type FlightOffer struct {
	ID                     string      `json:"id"`
	Price                  Price       `json:"price"`
	Itineraries            []Itinerary `json:"itineraries"`
	ValidatingAirlineCodes []string    `json:"validatingAirlineCodes,omitempty"`
}

// StripePayment is the checkout handle for a card payment.
type StripePayment struct {
	CheckoutURL string `json:"checkout_url"`
}

// CryptoPayment is the transfer target for USDC and on-chain payments.
type CryptoPayment struct {
	PaymentAddress string `json:"payment_address"`
	ExpectedAmount string `json:"expected_amount"`
	Currency       string `json:"currency"`
}

// TripSummary describes a booked trip on a ticket.
type TripSummary struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Date        string   `json:"date"`
	Travelers   []string `json:"travelers"`
}

// Ticket is an issued travel document.
type Ticket struct {
	ID          string      `json:"id"`
	Filename    string      `json:"filename"`
	SecureURL   string      `json:"secureUrl"`
	CreatedAt   string      `json:"createdAt"`
	TripSummary TripSummary `json:"tripSummary"`
	Status      string      `json:"status"`
}
