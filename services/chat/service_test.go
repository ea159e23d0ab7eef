package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ragdesk/models"
	"ragdesk/services/booking"
	"ragdesk/services/intelligence"
)

var fixedNow = time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

type fakeSearcher struct {
	results []models.RankedResult
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]models.RankedResult, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeNotifier struct{ receipts []models.BookingReceipt }

func (f *fakeNotifier) NotifyBooking(_ context.Context, r models.BookingReceipt) error {
	f.receipts = append(f.receipts, r)
	return nil
}

func newTestService(searcher Searcher, gen *fakeGenerator) (*Service, *fakeNotifier) {
	now := func() time.Time { return fixedNow }
	notifier := &fakeNotifier{}
	engine := booking.NewDialogueEngine(
		booking.NewIntentClassifier(booking.DefaultKeywords()),
		booking.NewParser(gen, nil),
		booking.NewFinalizer(notifier, nil, booking.WithFinalizerClock(now)),
		nil,
		booking.WithClock(now),
	)
	return NewService(engine, searcher, gen, intelligence.NewMemorySessionStore(), nil, WithClock(now)), notifier
}

func TestQuestionGoesToRetrieval(t *testing.T) {
	searcher := &fakeSearcher{results: []models.RankedResult{
		{Content: "Refunds take five days.", HybridScore: 0.8, Metadata: map[string]string{"source": "policy.txt"}},
	}}
	gen := &fakeGenerator{reply: "  Refunds take five days.  "}
	svc, _ := newTestService(searcher, gen)

	reply, err := svc.HandleMessage(context.Background(), "", "How long do refunds take?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.SessionID == "" {
		t.Fatal("no session id assigned")
	}
	if reply.HandledBy != models.HandledByRetrieval || reply.Response != "Refunds take five days." {
		t.Fatalf("reply = %+v", reply)
	}
	if len(reply.Sources) != 1 || reply.Booking.Active {
		t.Errorf("sources=%d booking=%+v", len(reply.Sources), reply.Booking)
	}
	if !strings.Contains(gen.prompts[0], "(policy.txt)") || !strings.Contains(gen.prompts[0], "User Question: How long do refunds take?") {
		t.Errorf("prompt missing context or question:\n%s", gen.prompts[0])
	}

	history, _ := svc.History(context.Background(), reply.SessionID)
	if len(history) != 2 || history[0].Role != models.RoleUser || history[1].Role != models.RoleAssistant {
		t.Errorf("history = %+v", history)
	}
}

func TestPromptQuotesEarlierTurns(t *testing.T) {
	searcher := &fakeSearcher{results: []models.RankedResult{{Content: "ctx"}}}
	gen := &fakeGenerator{reply: "ok"}
	svc, _ := newTestService(searcher, gen)
	ctx := context.Background()

	svc.HandleMessage(ctx, "s1", "first question", nil)
	svc.HandleMessage(ctx, "s1", "second question", nil)

	p := gen.prompts[1]
	if !strings.Contains(p, "User: first question") || !strings.Contains(p, "Assistant: ok") {
		t.Errorf("history missing from prompt:\n%s", p)
	}
	if strings.Contains(p, "User: second question") {
		t.Error("current question quoted as history")
	}
}

func TestHistoryKeepsEveryTurn(t *testing.T) {
	searcher := &fakeSearcher{results: []models.RankedResult{{Content: "ctx"}}}
	gen := &fakeGenerator{reply: "ok"}
	svc, _ := newTestService(searcher, gen)
	ctx := context.Background()

	const turns = 30
	for i := 0; i < turns; i++ {
		if _, err := svc.HandleMessage(ctx, "long", fmt.Sprintf("question %d", i), nil); err != nil {
			t.Fatal(err)
		}
	}
	history, err := svc.History(ctx, "long")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2*turns {
		t.Fatalf("history has %d messages, want %d", len(history), 2*turns)
	}
	if history[0].Content != "question 0" || history[len(history)-2].Content != fmt.Sprintf("question %d", turns-1) {
		t.Errorf("first=%q last question=%q", history[0].Content, history[len(history)-2].Content)
	}

	// The prompt still quotes only the recent window.
	if last := gen.prompts[len(gen.prompts)-1]; strings.Contains(last, "User: question 0\n") {
		t.Error("prompt window not bounded")
	}
}

func TestEmptyIndexReply(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be used"}
	svc, _ := newTestService(&fakeSearcher{results: []models.RankedResult{}}, gen)
	reply, err := svc.HandleMessage(context.Background(), "s", "what is the warranty?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Response != noResultsReply {
		t.Errorf("Response = %q", reply.Response)
	}
	if len(gen.prompts) != 0 {
		t.Error("generator called with no context")
	}
}

func TestCollaboratorFailuresStayOutOfTranscript(t *testing.T) {
	ctx := context.Background()

	svc, _ := newTestService(&fakeSearcher{err: errors.New("index offline")}, &fakeGenerator{})
	reply, err := svc.HandleMessage(ctx, "s", "anything?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Response != searchFailed {
		t.Errorf("search failure reply = %q", reply.Response)
	}

	svc, _ = newTestService(&fakeSearcher{results: []models.RankedResult{{Content: "c"}}}, &fakeGenerator{err: errors.New("quota exceeded")})
	reply, _ = svc.HandleMessage(ctx, "s", "anything?", nil)
	if reply.Response != answerFailed || strings.Contains(reply.Response, "quota") {
		t.Errorf("generation failure reply = %q", reply.Response)
	}
}

func TestCallbackBookingThroughService(t *testing.T) {
	searcher := &fakeSearcher{}
	svc, notifier := newTestService(searcher, &fakeGenerator{})
	ctx := context.Background()

	steps := []struct {
		msg      string
		progress string
	}{
		{"Please call me back", "Step 1/3: name"},
		{"jane doe", "Step 2/3: phone"},
		{"(555) 123-4567", "Step 3/3: email"},
	}
	for _, s := range steps {
		reply, err := svc.HandleMessage(ctx, "cb", s.msg, nil)
		if err != nil {
			t.Fatal(err)
		}
		if reply.HandledBy != models.HandledByBooking || !reply.Booking.Active || reply.Booking.Progress != s.progress {
			t.Fatalf("after %q: %+v", s.msg, reply)
		}
	}

	reply, err := svc.HandleMessage(ctx, "cb", "jane@example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reply.Booking.Complete || reply.Booking.Active || reply.Booking.Receipt == nil {
		t.Fatalf("final reply = %+v", reply)
	}
	if !strings.HasPrefix(reply.Booking.Receipt.ReferenceID, "CB-") {
		t.Errorf("reference = %q", reply.Booking.Receipt.ReferenceID)
	}
	if len(notifier.receipts) != 1 {
		t.Errorf("notified %d times", len(notifier.receipts))
	}
	if len(searcher.queries) != 0 {
		t.Errorf("booking messages reached retrieval: %v", searcher.queries)
	}

	status, _ := svc.Booking(ctx, "cb")
	if status.Active {
		t.Error("booking still active after completion")
	}
}

func TestClearHistoryDropsBooking(t *testing.T) {
	svc, _ := newTestService(&fakeSearcher{}, &fakeGenerator{})
	ctx := context.Background()
	svc.HandleMessage(ctx, "s", "I want to book an appointment", nil)

	status, _ := svc.Booking(ctx, "s")
	if !status.Active {
		t.Fatal("booking not started")
	}
	if err := svc.ClearHistory(ctx, "s"); err != nil {
		t.Fatal(err)
	}
	history, err := svc.History(ctx, "s")
	if err != nil || len(history) != 0 {
		t.Fatalf("history after clear = %v, %v", history, err)
	}
	status, _ = svc.Booking(ctx, "s")
	if status.Active {
		t.Error("booking survived clear")
	}
}

func TestEmptyMessageRejected(t *testing.T) {
	svc, _ := newTestService(&fakeSearcher{}, &fakeGenerator{})
	if _, err := svc.HandleMessage(context.Background(), "s", "   ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v", err)
	}
}

func TestConcurrentMessagesOnOneSession(t *testing.T) {
	svc, _ := newTestService(&fakeSearcher{results: []models.RankedResult{{Content: "c"}}}, &fakeGenerator{reply: "a"})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.HandleMessage(context.Background(), "shared", "question", nil)
		}()
	}
	wg.Wait()
	history, _ := svc.History(context.Background(), "shared")
	if len(history) != 20 {
		t.Errorf("history has %d messages, want 20", len(history))
	}
}

func TestExpiredBookingNoticeReachesRetrievalReply(t *testing.T) {
	now := fixedNow
	clock := func() time.Time { return now }
	gen := &fakeGenerator{reply: "Our hours are 9 to 5."}
	engine := booking.NewDialogueEngine(
		booking.NewIntentClassifier(booking.DefaultKeywords()),
		booking.NewParser(gen, nil),
		booking.NewFinalizer(&fakeNotifier{}, nil, booking.WithFinalizerClock(clock)),
		nil,
		booking.WithClock(clock),
		booking.WithIdleTimeout(30*time.Minute),
	)
	searcher := &fakeSearcher{results: []models.RankedResult{{Content: "Open 9 to 5."}}}
	svc := NewService(engine, searcher, gen, intelligence.NewMemorySessionStore(), nil, WithClock(clock))
	ctx := context.Background()

	svc.HandleMessage(ctx, "idle", "please call me back", nil)
	now = now.Add(time.Hour)
	reply, err := svc.HandleMessage(ctx, "idle", "5551234567", nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.HandledBy != models.HandledByRetrieval || !strings.Contains(reply.Response, "timed out") ||
		!strings.HasSuffix(reply.Response, "Our hours are 9 to 5.") {
		t.Errorf("reply = %+v", reply)
	}
}
