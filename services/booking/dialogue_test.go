package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"ragdesk/models"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestEngine(gen TextGenerator, c *clock, opts ...EngineOption) (*DialogueEngine, *fakeNotifier) {
	if c == nil {
		c = &clock{t: referenceDay}
	}
	notifier := &fakeNotifier{}
	finalizer := NewFinalizer(notifier, nil, WithFinalizerClock(c.now))
	opts = append([]EngineOption{WithClock(c.now)}, opts...)
	engine := NewDialogueEngine(NewIntentClassifier(DefaultKeywords()), NewParser(gen, nil), finalizer, nil, opts...)
	return engine, notifier
}

func send(t *testing.T, e *DialogueEngine, sess *models.ConversationSession, msgs ...string) []Outcome {
	t.Helper()
	out := make([]Outcome, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, e.ProcessMessage(context.Background(), sess, m, nil))
	}
	return out
}

func TestCallbackFlowCompletesOnFourthMessage(t *testing.T) {
	e, notifier := newTestEngine(nil, nil)
	sess := models.NewConversationSession("s1", referenceDay)

	out := send(t, e, sess, "I want to book a callback", "Jane Doe", "5551234567", "jane@x.com")
	for i, o := range out[:3] {
		if !o.Handled || o.Complete || o.Text == "" {
			t.Fatalf("message %d: outcome %+v", i+1, o)
		}
	}
	last := out[3]
	if !last.Complete || last.Receipt == nil {
		t.Fatalf("4th message did not complete: %+v", last)
	}
	for _, want := range []string{"CB-", "Jane Doe", "(555) 123-4567", "jane@x.com"} {
		if !strings.Contains(last.Text, want) {
			t.Errorf("receipt missing %q:\n%s", want, last.Text)
		}
	}
	if !strings.HasPrefix(last.Receipt.ReferenceID, "CB-") {
		t.Errorf("reference = %q", last.Receipt.ReferenceID)
	}
	if sess.ActiveBooking != nil {
		t.Error("booking not reset after completion")
	}
	if len(notifier.receipts) != 1 {
		t.Errorf("notifier called %d times", len(notifier.receipts))
	}
}

func TestCompletionTriggersExactlyOnce(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	sess := models.NewConversationSession("s1", referenceDay)
	send(t, e, sess, "call me please", "Jane Doe", "5551234567", "jane@x.com")

	next := e.ProcessMessage(context.Background(), sess, "what are your opening hours?", nil)
	if next.Handled || next.Complete {
		t.Fatalf("message after completion should fall through, got %+v", next)
	}
}

func TestInvalidPhoneDoesNotAdvance(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	sess := models.NewConversationSession("s1", referenceDay)
	send(t, e, sess, "callback please", "Jane Doe")
	before := sess.ActiveBooking.FieldIndex

	o := e.ProcessMessage(context.Background(), sess, "12a", nil)
	if sess.ActiveBooking.FieldIndex != before {
		t.Fatalf("field index moved from %d to %d", before, sess.ActiveBooking.FieldIndex)
	}
	if !strings.Contains(o.Text, "got 2") || !strings.Contains(o.Text, fieldPrompt(models.FieldPhone)) {
		t.Errorf("re-prompt = %q", o.Text)
	}
	if _, ok := sess.ActiveBooking.Field(models.FieldPhone); ok {
		t.Error("invalid phone was stored")
	}
}

func TestMonotonicProgressAndStoredPrefix(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	sess := models.NewConversationSession("s1", referenceDay)
	send(t, e, sess, "I'd like to schedule an appointment")

	inputs := []string{"jane doe", "555 123 4567", "JANE@X.COM", "tomorrow", "2pm"}
	for i, in := range inputs {
		o := e.ProcessMessage(context.Background(), sess, in, nil)
		if o.Complete {
			t.Fatalf("completed early at %d", i)
		}
		b := sess.ActiveBooking
		if b.FieldIndex != i+1 {
			t.Fatalf("after %q index = %d, want %d", in, b.FieldIndex, i+1)
		}
		fields := models.BookingAppointment.RequiredFields()
		for j, f := range b.CollectedFields {
			if f.Name != fields[j] {
				t.Fatalf("collected %v not a prefix of %v", b.CollectedFields, fields)
			}
		}
	}
	if got := Progress(sess); got != "Step 6/6: purpose" {
		t.Errorf("Progress = %q", got)
	}

	o := e.ProcessMessage(context.Background(), sess, "annual tax review", nil)
	if !o.Complete || o.Receipt == nil {
		t.Fatalf("not complete: %+v", o)
	}
	r := o.Receipt
	if !strings.HasPrefix(r.ReferenceID, "APT-") {
		t.Errorf("reference = %q", r.ReferenceID)
	}
	want := map[string]string{
		models.FieldName:    "Jane Doe",
		models.FieldPhone:   "(555) 123-4567",
		models.FieldEmail:   "jane@x.com",
		models.FieldDate:    "2024-06-11",
		models.FieldTime:    "2:00 PM",
		models.FieldPurpose: "annual tax review",
	}
	for k, v := range want {
		if r.Field(k) != v {
			t.Errorf("receipt %s = %q, want %q", k, r.Field(k), v)
		}
		if !strings.Contains(o.Text, v) {
			t.Errorf("summary missing %q", v)
		}
	}
}

func TestMidBookingMessageIsFieldInput(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	sess := models.NewConversationSession("s1", referenceDay)
	send(t, e, sess, "book an appointment", "Jane Doe")

	o := e.ProcessMessage(context.Background(), sess, "what's the weather", nil)
	if !o.Handled {
		t.Fatal("mid-booking message was not handled by the dialogue")
	}
	if sess.ActiveBooking.Kind != models.BookingAppointment || sess.ActiveBooking.FieldIndex != 1 {
		t.Fatalf("booking changed: %+v", sess.ActiveBooking)
	}

	e.ProcessMessage(context.Background(), sess, "call me", nil)
	if sess.ActiveBooking.Kind != models.BookingAppointment {
		t.Fatal("callback phrase restarted the flow")
	}
}

func TestCancelDiscardsBooking(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	sess := models.NewConversationSession("s1", referenceDay)
	send(t, e, sess, "book an appointment", "Jane Doe", "12a")

	o := e.ProcessMessage(context.Background(), sess, "  Cancel! ", nil)
	if !o.Handled || o.Text != cancelMessage {
		t.Fatalf("cancel outcome = %+v", o)
	}
	if IsActive(sess) || Progress(sess) != "" {
		t.Fatal("booking still active after cancel")
	}
}

func TestNoIntentIsNotHandled(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	sess := models.NewConversationSession("s1", referenceDay)
	o := e.ProcessMessage(context.Background(), sess, "What does the refund policy say?", nil)
	if o.Handled || o.Text != "" || sess.ActiveBooking != nil {
		t.Fatalf("outcome = %+v", o)
	}
}

func TestPastDateRepromptsSameField(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	sess := models.NewConversationSession("s1", referenceDay)
	send(t, e, sess, "book an appointment", "Jane Doe", "5551234567", "jane@x.com")

	o := e.ProcessMessage(context.Background(), sess, "yesterday", nil)
	if sess.ActiveBooking.CurrentField() != models.FieldDate {
		t.Fatalf("moved past date field: %s", sess.ActiveBooking.CurrentField())
	}
	if !strings.Contains(o.Text, ReasonPastDate) {
		t.Errorf("re-prompt = %q", o.Text)
	}
}

func TestCollaboratorFailureLeavesStateUnchanged(t *testing.T) {
	gen := &fakeGenerator{err: context.DeadlineExceeded}
	e, _ := newTestEngine(gen, nil)
	sess := models.NewConversationSession("s1", referenceDay)
	send(t, e, sess, "book an appointment", "Jane Doe", "5551234567", "jane@x.com")

	o := e.ProcessMessage(context.Background(), sess, "the first friday of july", nil)
	if !strings.HasPrefix(o.Text, collaboratorRetryMsg) {
		t.Errorf("text = %q", o.Text)
	}
	if sess.ActiveBooking.FieldIndex != 3 || len(sess.ActiveBooking.CollectedFields) != 3 {
		t.Fatalf("state changed: %+v", sess.ActiveBooking)
	}
	if strings.Contains(o.Text, "deadline") {
		t.Error("raw error leaked into transcript")
	}
}

func TestStaleBookingExpires(t *testing.T) {
	c := &clock{t: referenceDay}
	e, _ := newTestEngine(nil, c, WithIdleTimeout(30*time.Minute))
	sess := models.NewConversationSession("s1", referenceDay)
	send(t, e, sess, "book an appointment", "Jane Doe")

	c.t = c.t.Add(31 * time.Minute)
	o := e.ProcessMessage(context.Background(), sess, "5551234567", nil)
	if o.Handled || sess.ActiveBooking != nil {
		t.Fatalf("stale booking kept: %+v", o)
	}
	if o.Notice != expiredNotice {
		t.Errorf("expiry notice dropped: %+v", o)
	}
	if o = e.ProcessMessage(context.Background(), sess, "what is the refund policy?", nil); o.Notice != "" {
		t.Errorf("notice repeated on a later message: %+v", o)
	}

	send(t, e, sess, "book an appointment")
	c.t = c.t.Add(31 * time.Minute)
	o = e.ProcessMessage(context.Background(), sess, "schedule a callback", nil)
	if !strings.HasPrefix(o.Text, expiredNotice) || sess.ActiveBooking.Kind != models.BookingCallback {
		t.Fatalf("restart after expiry = %+v", o)
	}
}

func TestReentrantAcrossEngines(t *testing.T) {
	sess := models.NewConversationSession("s1", referenceDay)
	first, _ := newTestEngine(nil, nil)
	send(t, first, sess, "callback please", "Jane Doe")

	second, _ := newTestEngine(nil, nil)
	out := send(t, second, sess, "5551234567", "jane@x.com")
	if !out[1].Complete {
		t.Fatalf("second engine could not resume from session state: %+v", out[1])
	}
}
