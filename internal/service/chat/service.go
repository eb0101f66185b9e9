package chat

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/manishsharma864/ai-horroscope/internal/analysis/zodiac"
	"github.com/manishsharma864/ai-horroscope/internal/conversation"
	"github.com/manishsharma864/ai-horroscope/internal/model/birth"
	"github.com/manishsharma864/ai-horroscope/internal/model/chat"
)

// RejectionMessage is shown when the password does not match.
const RejectionMessage = "Incorrect password. Please try again."

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidPassword = errors.New("incorrect password")
	ErrUnauthenticated = errors.New("session is not authenticated")
	ErrEmptyMessage    = errors.New("message is required")
)

// Session is the hosting record around one conversation.
type Session struct {
	ID            string
	Authenticated bool
	Conversation  conversation.State
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// View returns the client-facing snapshot.
func (s Session) View() chat.SessionView {
	messages := make([]chat.Message, len(s.Conversation.Messages))
	copy(messages, s.Conversation.Messages)
	return chat.SessionView{
		ID:            s.ID,
		Step:          string(s.Conversation.Step),
		Authenticated: s.Authenticated,
		Messages:      messages,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// Subject pairs collected details with derived indices.
type Subject struct {
	birth.Details
	Zodiac *zodiac.Indices `json:"zodiac,omitempty"`
}

// Profile is what has been collected so far in a session.
type Profile struct {
	SessionID string   `json:"sessionId"`
	Step      string   `json:"step"`
	Subject   *Subject `json:"subject,omitempty"`
	Partner   *Subject `json:"partner,omitempty"`
}

// entry serializes message handling per session; sessions never share locks.
type entry struct {
	mu      sync.Mutex
	session Session
}

// Service encapsulates conversation state management.
type Service struct {
	engine   *conversation.Engine
	password string

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewService bootstraps the in-memory chat service.
func NewService(engine *conversation.Engine, password string) *Service {
	return &Service{
		engine:   engine,
		password: password,
		sessions: make(map[string]*entry),
	}
}

// CreateSession provisions an unauthenticated session at step name.
func (s *Service) CreateSession(_ context.Context) (Session, error) {
	now := time.Now().UTC()
	session := Session{
		ID:           uuid.NewString(),
		Conversation: conversation.NewState(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = &entry{session: session}
	s.mu.Unlock()

	log.Info().Str("component", "chat").Str("session", session.ID).Msg("session created")
	return session.copy(), nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.copy(), nil
}

// Login flips the authenticated flag when password matches. A wrong password
// leaves the session untouched.
func (s *Service) Login(_ context.Context, sessionID, password string) (Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return Session{}, err
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		log.Warn().Str("component", "chat").Str("session", sessionID).Msg("login rejected")
		return Session{}, ErrInvalidPassword
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Authenticated = true
	e.session.UpdatedAt = time.Now().UTC()

	log.Info().Str("component", "chat").Str("session", sessionID).Msg("login accepted")
	return e.session.copy(), nil
}

// Logout clears the authenticated flag and every collected field.
func (s *Service) Logout(_ context.Context, sessionID string) (Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Authenticated = false
	e.session.Conversation = conversation.NewState()
	e.session.UpdatedAt = time.Now().UTC()

	log.Info().Str("component", "chat").Str("session", sessionID).Msg("logged out")
	return e.session.copy(), nil
}

// Reset starts the conversation over: greeting only, step name, no details.
func (s *Service) Reset(_ context.Context, sessionID string) (Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.session.Authenticated {
		return Session{}, ErrUnauthenticated
	}

	e.session.Conversation = conversation.NewState()
	e.session.UpdatedAt = time.Now().UTC()

	log.Info().Str("component", "chat").Str("session", sessionID).Msg("conversation reset")
	return e.session.copy(), nil
}

// Send runs one user message through the conversation engine. Messages for
// the same session are processed one at a time. A text generation failure is
// returned as *conversation.ServiceError; the user entry is kept in the
// transcript and the step does not advance.
func (s *Service) Send(ctx context.Context, sessionID, content string) (Session, error) {
	if strings.TrimSpace(content) == "" {
		return Session{}, ErrEmptyMessage
	}

	e, err := s.lookup(sessionID)
	if err != nil {
		return Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.session.Authenticated {
		return Session{}, ErrUnauthenticated
	}

	next, err := s.engine.Handle(ctx, e.session.Conversation, content)
	if err != nil {
		if errors.Is(err, conversation.ErrEmptyInput) {
			return Session{}, ErrEmptyMessage
		}
		var serviceErr *conversation.ServiceError
		if errors.As(err, &serviceErr) {
			e.session.Conversation = next
			e.session.UpdatedAt = time.Now().UTC()
		}
		log.Error().Err(err).Str("component", "chat").Str("session", sessionID).Str("step", string(e.session.Conversation.Step)).Msg("message failed")
		return Session{}, fmt.Errorf("handle message: %w", err)
	}

	e.session.Conversation = next
	e.session.UpdatedAt = time.Now().UTC()
	return e.session.copy(), nil
}

// LoadTranscript returns a copy of the stored messages for the provided session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Conversation.Messages, nil
}

// Profile reports the details collected so far, with zodiac indices once a
// birth date is known.
func (s *Service) Profile(ctx context.Context, sessionID string) (Profile, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return Profile{}, err
	}
	if !session.Authenticated {
		return Profile{}, ErrUnauthenticated
	}

	state := session.Conversation
	profile := Profile{SessionID: session.ID, Step: string(state.Step)}
	if state.Subject.Name != "" {
		profile.Subject = newSubject(state.Subject)
	}
	if state.Partner.Name != "" {
		profile.Partner = newSubject(state.Partner)
	}
	return profile, nil
}

func newSubject(details birth.Details) *Subject {
	subject := &Subject{Details: details}
	if details.Date != (birth.Date{}) {
		indices := zodiac.Compute(details.Date)
		subject.Zodiac = &indices
	}
	return subject
}

func (s *Service) lookup(sessionID string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (s Session) copy() Session {
	cloned := s
	cloned.Conversation.Messages = append([]chat.Message(nil), s.Conversation.Messages...)
	return cloned
}
