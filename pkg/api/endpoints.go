package api

import (
	"context"
	"net/url"
)

// Backend endpoint paths. Exact strings are part of the wire contract.
const (
	pathRegister            = "/mobile/register"
	pathLogin               = "/mobile/login"
	pathDevices             = "/mobile/devices"
	pathMessage             = "/mobile/message"
	pathMessages            = "/mobile/messages"
	pathOffers              = "/mobile/offers"
	pathSelectOffer         = "/mobile/select-offer"
	pathPaymentsStripe      = "/mobile/payments/stripe"
	pathPaymentsUSDC        = "/mobile/payments/usdc"
	pathPaymentsCircleLayer = "/mobile/payments/circlelayer"
	pathTickets             = "/mobile/tickets"
)

// Register registers a device and returns the issued identity and tokens.
func (c *Client) Register(ctx context.Context, info DeviceInfo) (*AuthPayload, error) {
	env, err := c.Post(ctx, pathRegister, map[string]DeviceInfo{"device_info": info})
	if err != nil {
		return nil, err
	}

	var payload AuthPayload
	if err := decodeData(env, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Login authenticates by email or phone.
func (c *Client) Login(ctx context.Context, email, phone string) (*AuthPayload, error) {
	body := map[string]string{}
	if email != "" {
		body["email"] = email
	}
	if phone != "" {
		body["phone"] = phone
	}

	env, err := c.Post(ctx, pathLogin, body)
	if err != nil {
		return nil, err
	}

	var payload AuthPayload
	if err := decodeData(env, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// RegisterDevice registers a push-notification device.
func (c *Client) RegisterDevice(ctx context.Context, device PushDevice) error {
	_, err := c.Post(ctx, pathDevices, device)
	return err
}

// SendMessage delivers a user chat message and returns the backend's
// replies and conversation stage.
func (c *Client) SendMessage(ctx context.Context, userID, text string) (*SendMessageResult, error) {
	env, err := c.Post(ctx, pathMessage, map[string]string{
		"user_id": userID,
		"text":    text,
	})
	if err != nil {
		return nil, err
	}

	return &SendMessageResult{
		Replies:        env.Messages,
		State:          env.State,
		RequiresAction: env.RequiresAction,
	}, nil
}

// Messages fetches chat history, optionally only entries after since
// (an opaque cursor issued by the backend).
func (c *Client) Messages(ctx context.Context, since string) ([]IncomingMessage, error) {
	var query url.Values
	if since != "" {
		query = url.Values{"since": {since}}
	}

	env, err := c.Get(ctx, pathMessages, query)
	if err != nil {
		return nil, err
	}

	var messages []IncomingMessage
	if err := decodeData(env, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Offers lists current flight offers.
func (c *Client) Offers(ctx context.Context) ([]FlightOffer, error) {
	env, err := c.Get(ctx, pathOffers, nil)
	if err != nil {
		return nil, err
	}

	var offers []FlightOffer
	if err := decodeData(env, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// SelectOffer confirms a flight offer choice.
func (c *Client) SelectOffer(ctx context.Context, offerID string) error {
	_, err := c.Post(ctx, pathSelectOffer, map[string]string{"offer_id": offerID})
	return err
}

// CreateStripePayment starts a card payment for an offer.
func (c *Client) CreateStripePayment(ctx context.Context, offerID string) (*StripePayment, error) {
	env, err := c.Post(ctx, pathPaymentsStripe, map[string]string{"offer_id": offerID})
	if err != nil {
		return nil, err
	}

	var payment StripePayment
	if err := decodeData(env, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreateUSDCPayment starts a USDC stablecoin payment for an offer.
func (c *Client) CreateUSDCPayment(ctx context.Context, offerID string) (*CryptoPayment, error) {
	return c.createCryptoPayment(ctx, pathPaymentsUSDC, offerID)
}

// CreateCircleLayerPayment starts an on-chain CLAYER payment for an offer.
func (c *Client) CreateCircleLayerPayment(ctx context.Context, offerID string) (*CryptoPayment, error) {
	return c.createCryptoPayment(ctx, pathPaymentsCircleLayer, offerID)
}

func (c *Client) createCryptoPayment(ctx context.Context, path, offerID string) (*CryptoPayment, error) {
	env, err := c.Post(ctx, path, map[string]string{"offer_id": offerID})
	if err != nil {
		return nil, err
	}

	var payment CryptoPayment
	if err := decodeData(env, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Tickets lists issued travel documents.
func (c *Client) Tickets(ctx context.Context) ([]Ticket, error) {
	env, err := c.Get(ctx, pathTickets, nil)
	if err != nil {
		return nil, err
	}

	var tickets []Ticket
	if err := decodeData(env, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}
