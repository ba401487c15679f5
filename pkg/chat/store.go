// Package chat holds the conversation log and booking-flow state for a
// session: optimistic message sending with retry, backend reply capture,
// cached flight offers, and snapshot persistence across restarts.
package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flaitravel/mobile-core/pkg/api"
	"github.com/flaitravel/mobile-core/pkg/retry"
	"github.com/flaitravel/mobile-core/pkg/storage"
)

const slogKeyError = "error"

// Store is the conversation state store. All methods are safe for
// concurrent use; network calls run outside the lock.
type Store struct {
	client *api.Client
	plain  storage.Store
	userID func(ctx context.Context) string

	attempts  int
	baseDelay time.Duration

	mu       sync.RWMutex
	messages []Message
	state    ConversationState
	offers   []api.FlightOffer
	selected *api.FlightOffer
}

// NewStore creates a chat store. userID supplies the session's user id for
// outgoing messages.
func NewStore(client *api.Client, plain storage.Store, userID func(ctx context.Context) string) *Store {
	return &Store{
		client:    client,
		plain:     plain,
		userID:    userID,
		attempts:  retry.DefaultAttempts,
		baseDelay: retry.DefaultBaseDelay,
		state:     StateGatheringInfo,
	}
}

// AddMessage appends a message to the log, filling in the id and timestamp,
// and returns the stored message.
func (s *Store) AddMessage(ctx context.Context, msg Message) Message {
	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now().UTC()

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	s.persist(ctx)
	return msg
}

// UpdateMessage applies a partial update to the message with the given id.
// Unknown ids are a no-op.
func (s *Store) UpdateMessage(ctx context.Context, id string, patch Patch) {
	s.mu.Lock()
	changed := false
	for i := range s.messages {
		if s.messages[i].ID != id {
			continue
		}
		if patch.Text != nil {
			s.messages[i].Text = *patch.Text
		}
		if patch.Status != nil {
			s.messages[i].Status = *patch.Status
		}
		changed = true
		break
	}
	s.mu.Unlock()

	if changed {
		s.persist(ctx)
	}
}

// SendMessage appends the user's message optimistically, delivers it to the
// backend under the retry policy, then settles the message to sent or
// error. Backend replies are appended as bot messages and the reported
// conversation stage is recorded. The settled user message is returned
// either way so callers can offer a retry on failure.
func (s *Store) SendMessage(ctx context.Context, text string) (Message, error) {
	msg := s.AddMessage(ctx, Message{Text: text, IsUser: true, Status: StatusSending})

	if err := s.deliver(ctx, msg.ID, text); err != nil {
		s.setStatus(ctx, msg.ID, StatusError)
		msg.Status = StatusError
		return msg, err
	}

	s.setStatus(ctx, msg.ID, StatusSent)
	msg.Status = StatusSent
	return msg, nil
}

// RetryMessage re-delivers a previously failed user message under the same
// id. Unknown ids and messages that are not in the error state are no-ops.
func (s *Store) RetryMessage(ctx context.Context, id string) error {
	s.mu.RLock()
	var text string
	found := false
	for i := range s.messages {
		if s.messages[i].ID == id && s.messages[i].IsUser && s.messages[i].Status == StatusError {
			text = s.messages[i].Text
			found = true
			break
		}
	}
	s.mu.RUnlock()

	if !found {
		return nil
	}

	s.setStatus(ctx, id, StatusSending)
	if err := s.deliver(ctx, id, text); err != nil {
		s.setStatus(ctx, id, StatusError)
		return err
	}
	s.setStatus(ctx, id, StatusSent)
	return nil
}

// deliver posts the message with retries and folds the backend's replies
// and conversation stage into the store.
func (s *Store) deliver(ctx context.Context, id, text string) error {
	result, err := retry.DoValue(ctx, s.attempts, s.baseDelay, func(ctx context.Context) (*api.SendMessageResult, error) {
		return s.client.SendMessage(ctx, s.userID(ctx), text)
	})
	if err != nil {
		slog.Warn("chat: message delivery failed", "message_id", id, slogKeyError, err)
		return err
	}

	for _, reply := range result.Replies {
		s.AddMessage(ctx, Message{Text: reply, IsUser: false})
	}
	if result.State != "" {
		s.SetConversationState(ctx, ConversationState(result.State))
	}
	return nil
}

func (s *Store) setStatus(ctx context.Context, id string, status Status) {
	s.UpdateMessage(ctx, id, Patch{Status: &status})
}

// Sync merges chat history fetched from the backend into the log. Messages
// already present (by id) are left alone; fetched entries pass through the
// same repair policy as rehydration.
func (s *Store) Sync(ctx context.Context, since string) error {
	fetched, err := s.client.Messages(ctx, since)
	if err != nil {
		return err
	}

	s.mu.Lock()
	known := make(map[string]struct{}, len(s.messages))
	for _, m := range s.messages {
		known[m.ID] = struct{}{}
	}
	added := 0
	for _, in := range fetched {
		if _, ok := known[in.ID]; ok {
			continue
		}
		msg, ok := repairMessage(Message{
			ID:        in.ID,
			Text:      in.Text,
			IsUser:    in.IsUser,
			Timestamp: parseTimestamp(in.Timestamp),
			Status:    Status(in.Status),
		})
		if !ok {
			continue
		}
		s.messages = append(s.messages, msg)
		added++
	}
	s.mu.Unlock()

	if added > 0 {
		s.persist(ctx)
	}
	return nil
}

// SetConversationState records the booking-flow stage.
func (s *Store) SetConversationState(ctx context.Context, state ConversationState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.persist(ctx)
}

// ConversationState returns the current booking-flow stage.
func (s *Store) ConversationState() ConversationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetOffers caches the flight offers presented to the user.
func (s *Store) SetOffers(ctx context.Context, offers []api.FlightOffer) {
	s.mu.Lock()
	s.offers = append([]api.FlightOffer(nil), offers...)
	s.selected = nil
	s.mu.Unlock()
	s.persist(ctx)
}

// Offers returns the cached flight offers.
func (s *Store) Offers() []api.FlightOffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.FlightOffer(nil), s.offers...)
}

// SelectOffer records the user's choice locally and confirms it with the
// backend.
func (s *Store) SelectOffer(ctx context.Context, offer api.FlightOffer) error {
	s.mu.Lock()
	chosen := offer
	s.selected = &chosen
	s.mu.Unlock()
	s.persist(ctx)

	return s.client.SelectOffer(ctx, offer.ID)
}

// SelectedOffer returns the chosen offer, or nil.
func (s *Store) SelectedOffer() *api.FlightOffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	chosen := *s.selected
	return &chosen
}

// Messages returns a copy of the conversation log.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.messages...)
}

// ClearChat resets the log, conversation stage, and cached offers. Auth
// state is untouched.
func (s *Store) ClearChat(ctx context.Context) {
	s.mu.Lock()
	s.messages = nil
	s.state = StateGatheringInfo
	s.offers = nil
	s.selected = nil
	s.mu.Unlock()
	s.persist(ctx)
}
