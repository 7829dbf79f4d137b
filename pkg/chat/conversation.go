package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/papercomputeco/farmbuddy/pkg/client"
)

// Resume reopens the conversation the session was created with. When there is
// none, or the backend no longer knows it, a new conversation is started.
func (s *Session) Resume(ctx context.Context) (int64, error) {
	id := s.ConversationID()
	if id == 0 {
		return s.NewConversation(ctx)
	}

	err := s.OpenConversation(ctx, id)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, client.ErrNotFound):
		s.logger.Info("saved conversation is gone, starting a new one", "conversation_id", id)
		return s.NewConversation(ctx)
	default:
		return 0, err
	}
}

// NewConversation starts a new conversation and makes it the active one.
func (s *Session) NewConversation(ctx context.Context) (int64, error) {
	release, err := s.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	id, err := s.backend.NewConversation(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting conversation: %w", err)
	}

	s.switchTo(id, "")
	s.logger.Debug("started conversation", "conversation_id", id)
	return id, nil
}

// OpenConversation makes id the active conversation.
func (s *Session) OpenConversation(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNoConversation
	}

	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := s.backend.OpenConversation(ctx, id); err != nil {
		return fmt.Errorf("opening conversation %d: %w", id, err)
	}

	s.mu.Lock()
	title := ""
	if s.conversationID == id {
		title = s.title
	}
	s.mu.Unlock()

	s.switchTo(id, title)
	return nil
}

// Rename sets the title of conversation id, or of the active conversation
// when id is 0, and returns the title the backend stored.
func (s *Session) Rename(ctx context.Context, id int64, title string) (string, error) {
	if id == 0 {
		id = s.ConversationID()
	}
	if id == 0 {
		return "", ErrNoConversation
	}

	release, err := s.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	stored, err := s.backend.RenameConversation(ctx, id, title)
	if err != nil {
		return "", fmt.Errorf("renaming conversation %d: %w", id, err)
	}

	s.mu.Lock()
	if s.conversationID == id {
		s.title = stored
	}
	s.mu.Unlock()

	return stored, nil
}

// Delete removes conversation id, or the active conversation when id is 0.
// Deleting the active conversation leaves the session without one.
func (s *Session) Delete(ctx context.Context, id int64) error {
	if id == 0 {
		id = s.ConversationID()
	}
	if id == 0 {
		return ErrNoConversation
	}

	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := s.backend.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("deleting conversation %d: %w", id, err)
	}

	s.mu.Lock()
	if s.conversationID == id {
		s.conversationID = 0
		s.title = ""
		s.transcript = nil
		s.lastReply = ""
	}
	s.mu.Unlock()

	return nil
}

// ShareLocation sends the coordinates to the backend and adds the weather
// report it returns to the transcript.
func (s *Session) ShareLocation(ctx context.Context, lat, lon float64) (*client.Weather, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	w, err := s.backend.ShareLocation(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("sharing location: %w", err)
	}

	s.appendMessage(Message{Role: RoleSystem, Text: w.Report, At: time.Now()})
	return w, nil
}

// switchTo makes id the active conversation and starts an empty transcript.
func (s *Session) switchTo(id int64, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversationID = id
	s.title = title
	s.transcript = nil
	s.lastReply = ""
}
