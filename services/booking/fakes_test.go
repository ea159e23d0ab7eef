package booking

import (
	"context"
	"sync"
	"time"

	"ragdesk/models"
)

var referenceDay = time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC) // a Monday

type fakeGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.answer, g.err
}

type progressEvent struct {
	fraction float64
	label    string
}

type recordingProgress struct {
	events []progressEvent
}

func (p *recordingProgress) ReportProgress(fraction float64, label string) {
	p.events = append(p.events, progressEvent{fraction, label})
}

type fakeNotifier struct {
	mu       sync.Mutex
	receipts []models.BookingReceipt
	err      error
}

func (n *fakeNotifier) NotifyBooking(_ context.Context, r models.BookingReceipt) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, r)
	return n.err
}
