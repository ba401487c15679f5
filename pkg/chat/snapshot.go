package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flaitravel/mobile-core/pkg/api"
	"github.com/flaitravel/mobile-core/pkg/storage"
)

// snapshot is the persisted shape of the store. Timestamps travel as
// RFC 3339 strings so a snapshot written by another client build stays
// readable.
type snapshot struct {
	Messages      []snapshotMessage  `json:"messages"`
	State         ConversationState  `json:"conversationState"`
	Offers        []api.FlightOffer  `json:"flightOffers,omitempty"`
	SelectedOffer *api.FlightOffer   `json:"selectedOffer,omitempty"`
}

type snapshotMessage struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsUser    bool   `json:"isUser"`
	Timestamp string `json:"timestamp"`
	Status    Status `json:"status,omitempty"`
}

// persist writes the current state to the plain store. Failures are logged,
// never surfaced: losing a snapshot write costs persistence across restart,
// not correctness now.
func (s *Store) persist(ctx context.Context) {
	s.mu.RLock()
	snap := snapshot{
		Messages:      make([]snapshotMessage, 0, len(s.messages)),
		State:         s.state,
		Offers:        s.offers,
		SelectedOffer: s.selected,
	}
	for _, m := range s.messages {
		snap.Messages = append(snap.Messages, snapshotMessage{
			ID:        m.ID,
			Text:      m.Text,
			IsUser:    m.IsUser,
			Timestamp: m.Timestamp.Format(time.RFC3339Nano),
			Status:    m.Status,
		})
	}
	s.mu.RUnlock()

	if err := s.plain.Set(ctx, storage.KeyChatSnapshot, snap); err != nil {
		slog.Warn("chat: persisting snapshot", slogKeyError, err)
	}
}

// Rehydrate restores the store from the persisted snapshot. Damaged entries
// are repaired rather than rejected; a snapshot that fails to decode at all
// falls back to an empty log. Never returns an error to the caller.
func (s *Store) Rehydrate(ctx context.Context) {
	var snap snapshot
	if err := s.plain.Get(ctx, storage.KeyChatSnapshot, &snap); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("chat: snapshot unreadable, starting empty", slogKeyError, err)
		}
		return
	}

	messages := make([]Message, 0, len(snap.Messages))
	dropped := 0
	for _, in := range snap.Messages {
		msg, ok := repairMessage(Message{
			ID:        in.ID,
			Text:      in.Text,
			IsUser:    in.IsUser,
			Timestamp: parseTimestamp(in.Timestamp),
			Status:    in.Status,
		})
		if !ok {
			dropped++
			continue
		}
		messages = append(messages, msg)
	}
	if dropped > 0 {
		slog.Warn("chat: dropped unrenderable messages during rehydration", "count", dropped)
	}

	state := snap.State
	if state == "" {
		state = StateGatheringInfo
	}

	s.mu.Lock()
	s.messages = messages
	s.state = state
	s.offers = snap.Offers
	s.selected = snap.SelectedOffer
	s.mu.Unlock()
}

// repairMessage normalizes a possibly damaged message. Missing ids get a
// fresh uuid, zero timestamps default to now, and statuses outside the
// known set are cleared. A user message with no text cannot be rendered or
// retried and is dropped.
func repairMessage(msg Message) (Message, bool) {
	if msg.IsUser && msg.Text == "" {
		return Message{}, false
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.Status != "" && !validStatus(msg.Status) {
		msg.Status = ""
	}
	return msg, true
}

// parseTimestamp parses an RFC 3339 timestamp, returning the zero time for
// anything unparsable so repairMessage can default it.
func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
