// Package chat routes each user message either to the booking dialogue or to
// document question answering, and keeps the per-session transcript.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ragdesk/models"
	"ragdesk/services/booking"
	"ragdesk/services/intelligence"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	noResultsReply = "❌ No relevant documents found. Try rephrasing your question."
	answerFailed   = "⚠️ Sorry, I couldn't generate an answer just now. Please try again."
	searchFailed   = "⚠️ Sorry, I couldn't search the documents just now. Please try again."
)

var ErrEmptyMessage = errors.New("message is empty")

// Searcher returns reranked chunks for a query.
type Searcher interface {
	Search(ctx context.Context, query string, finalK int) ([]models.RankedResult, error)
}

// Service is the conversation orchestrator shared by HTTP, websocket and the terminal UI.
type Service struct {
	engine       *booking.DialogueEngine
	searcher     Searcher
	generator    booking.TextGenerator
	sessions     intelligence.SessionStore
	logger       *zap.Logger
	topK         int
	historyTurns int
	now          func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*Service)

func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithHistoryTurns sets how many earlier messages are quoted in answer prompts.
func WithHistoryTurns(n int) Option {
	return func(s *Service) { s.historyTurns = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(engine *booking.DialogueEngine, searcher Searcher, generator booking.TextGenerator, sessions intelligence.SessionStore, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		engine:       engine,
		searcher:     searcher,
		generator:    generator,
		sessions:     sessions,
		logger:       logger,
		topK:         3,
		historyTurns: 6,
		now:          time.Now,
		locks:        make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock serializes messages of one session; different sessions run in parallel.
func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// HandleMessage processes one user message. An empty sessionID starts a new session.
func (s *Service) HandleMessage(ctx context.Context, sessionID, message string, progress booking.ProgressReporter) (*models.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	unlock := s.lock(sessionID)
	defer unlock()

	sess, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Append(models.RoleUser, message, s.now())

	reply := &models.ChatReply{SessionID: sessionID}
	outcome := s.engine.ProcessMessage(ctx, sess, message, progress)
	if outcome.Handled {
		reply.HandledBy = models.HandledByBooking
		reply.Response = outcome.Text
		reply.Booking = models.BookingStatus{
			Active:   booking.IsActive(sess),
			Progress: booking.Progress(sess),
			Complete: outcome.Complete,
			Receipt:  outcome.Receipt,
		}
	} else {
		reply.HandledBy = models.HandledByRetrieval
		reply.Response, reply.Sources = s.answer(ctx, sess, message)
		if outcome.Notice != "" {
			reply.Response = outcome.Notice + "\n\n" + reply.Response
		}
	}

	sess.Append(models.RoleAssistant, reply.Response, s.now())
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return reply, nil
}

func (s *Service) loadOrCreate(ctx context.Context, id string) (*models.ConversationSession, error) {
	sess, err := s.sessions.Load(ctx, id)
	if errors.Is(err, intelligence.ErrSessionNotFound) {
		s.logger.Debug("chat: new session", zap.String("session", id))
		return models.NewConversationSession(id, s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (s *Service) answer(ctx context.Context, sess *models.ConversationSession, question string) (string, []models.RankedResult) {
	results, err := s.searcher.Search(ctx, question, s.topK)
	if err != nil {
		s.logger.Warn("chat: retrieval failed", zap.String("session", sess.ID), zap.Error(err))
		return searchFailed, nil
	}
	if len(results) == 0 {
		return noResultsReply, nil
	}

	// The question itself is the last message; quote only what came before it.
	history := sess.RecentMessages(s.historyTurns + 1)
	history = history[:len(history)-1]

	text, err := s.generator.Complete(ctx, answerPrompt(question, results, history))
	if err != nil {
		s.logger.Warn("chat: answer generation failed", zap.String("session", sess.ID), zap.Error(err))
		return answerFailed, results
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return answerFailed, results
	}
	return text, results
}

// Booking reports the booking view of a session without changing it.
func (s *Service) Booking(ctx context.Context, sessionID string) (models.BookingStatus, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, intelligence.ErrSessionNotFound) {
		return models.BookingStatus{}, nil
	}
	if err != nil {
		return models.BookingStatus{}, err
	}
	return models.BookingStatus{Active: booking.IsActive(sess), Progress: booking.Progress(sess)}, nil
}

// History returns the transcript of a session; unknown sessions have none.
func (s *Service) History(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, intelligence.ErrSessionNotFound) {
		return []models.ChatMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

// ClearHistory forgets a session, including any booking in progress.
func (s *Service) ClearHistory(ctx context.Context, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()
	return s.sessions.Delete(ctx, sessionID)
}
