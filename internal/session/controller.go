// Package session implements the interview session timing and
// submission controller: a single-owner state machine that consumes
// clock ticks, transcription fragments, and user actions from one
// ordered queue and drives exactly one submission per question.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mockmate/rehearse/internal/adapters/draftstore"
	"github.com/mockmate/rehearse/internal/adapters/evaluation"
	"github.com/mockmate/rehearse/internal/adapters/transcribe"
	"github.com/mockmate/rehearse/internal/domain/answer"
	"github.com/mockmate/rehearse/internal/domain/model"
	"github.com/mockmate/rehearse/pkg/logger"
	"github.com/mockmate/rehearse/pkg/metrics"
)

const subscriberBuffer = 16

// Controller owns one interview session. It is the sole owner of the
// session state and the answer buffer; every input source posts events
// into the queue and the loop goroutine applies them one at a time.
type Controller struct {
	id     string
	eval   evaluation.Client
	drafts draftstore.Store
	source transcribe.Source
	log    logger.Logger

	queueSize    int
	tickInterval time.Duration

	queue *eventQueue
	clock *clock

	ctx       context.Context
	cancelRun context.CancelFunc
	done      chan struct{}

	// manualPending marks a user submit action that is queued but not
	// yet processed. A deadline tick arriving in the same instant
	// defers to it: user intent wins the tie.
	manualPending atomic.Bool

	// Loop-owned state. Only the loop goroutine touches these.
	status         model.Status
	question       *model.Question
	buffer         string
	remaining      int
	tickEpoch      uint64
	inFlight       bool
	transcribing   bool
	pendingAnswer  string
	pendingElapsed int
	retried        bool
	result         *model.SubmissionResult
	lastErr        error

	// Published state, readable from any goroutine.
	mu       sync.RWMutex
	snapshot model.Snapshot
	records  []model.QuestionRecord
	subs     map[chan model.Snapshot]struct{}
}

// New creates a session controller and starts its event loop. The
// loop runs until ctx is cancelled or Close is called.
func New(ctx context.Context, id string, eval evaluation.Client, drafts draftstore.Store, opts ...Option) *Controller {
	c := &Controller{
		id:           id,
		eval:         eval,
		drafts:       drafts,
		source:       transcribe.NewUnavailable(),
		queueSize:    defaultQueueCapacity,
		tickInterval: defaultTickInterval,
		status:       model.StatusIdle,
		done:         make(chan struct{}),
		subs:         make(map[chan model.Snapshot]struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = logger.Get().Named("session")
	}

	c.queue = newEventQueue(c.queueSize)
	c.clock = newClock(c.tickInterval, func(t tick) {
		_ = c.queue.enqueue(event{kind: kindTick, epoch: t.epoch, remaining: t.remaining})
	})

	c.ctx, c.cancelRun = context.WithCancel(ctx)
	c.publish()
	go c.loop()
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Done is closed once the event loop has exited.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Close tears the controller down: the clock and transcription source
// stop, further events are rejected, and the loop exits after the
// current transition completes.
func (c *Controller) Close() {
	c.clock.cancel()
	c.queue.close()
	c.cancelRun()
}

// Start begins the session: Idle -> AwaitingQuestion -> Active on the
// first question from the evaluation service. On failure the session
// stays Idle and the error is returned.
func (c *Controller) Start(ctx context.Context) error {
	return c.do(ctx, event{kind: kindStart})
}

// EditAnswer replaces the answer buffer with text. Valid only while a
// question is active.
func (c *Controller) EditAnswer(ctx context.Context, text string) error {
	return c.do(ctx, event{kind: kindEdit, text: text})
}

// ToggleTranscription starts voice capture if stopped and stops it if
// running. Returns the source's activation error, if any; a missing
// capability never blocks typed input.
func (c *Controller) ToggleTranscription(ctx context.Context) error {
	return c.do(ctx, event{kind: kindTranscription})
}

// RequestDraftSave snapshots the answer buffer into the draft store
// and, best effort, to the evaluation service. Persistence failures
// are absorbed; the in-memory buffer is authoritative regardless.
func (c *Controller) RequestDraftSave(ctx context.Context) error {
	return c.do(ctx, event{kind: kindDraftSave})
}

// SubmitNow requests a user-initiated submission of the current
// answer. If a deadline-forced submission races with it, whichever
// sets the in-flight flag first wins and the other is a no-op; on an
// exact tie the manual action takes precedence.
func (c *Controller) SubmitNow(ctx context.Context) error {
	c.manualPending.Store(true)
	err := c.do(ctx, event{kind: kindSubmit})
	if err != nil && (errors.Is(err, ErrClosed) || errors.Is(err, ErrQueueFull)) {
		c.manualPending.Store(false)
	}
	return err
}

// AcknowledgeFeedback completes the feedback step after a successful
// submission, advancing to the next question or to a terminal state
// according to the recorded outcome.
func (c *Controller) AcknowledgeFeedback(ctx context.Context) error {
	return c.do(ctx, event{kind: kindFeedbackAck})
}

// Cancel terminates the session. The clock and transcription source
// stop immediately; a submission already sent to the evaluation
// service completes first, since the loop processes one event at a
// time.
func (c *Controller) Cancel(ctx context.Context) error {
	return c.do(ctx, event{kind: kindCancel})
}

// Snapshot returns the most recently published session state.
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Records returns the answered-question records in order.
func (c *Controller) Records() []model.QuestionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.QuestionRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Subscribe registers a snapshot listener. The returned cancel func
// must be called to release it. Slow listeners miss intermediate
// snapshots rather than blocking the controller.
func (c *Controller) Subscribe() (<-chan model.Snapshot, func()) {
	ch := make(chan model.Snapshot, subscriberBuffer)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	ch <- c.snapshot
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// do posts an event and waits for the loop to process it.
func (c *Controller) do(ctx context.Context, e event) error {
	e.reply = make(chan error, 1)
	if err := c.queue.enqueue(e); err != nil {
		return err
	}
	select {
	case err := <-e.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// loop drains the event queue one event at a time. A new event is not
// processed until the current one's state transition completes.
func (c *Controller) loop() {
	defer close(c.done)

	ch := c.queue.channel()
	for {
		select {
		case <-c.ctx.Done():
			c.teardown()
			return
		case e, ok := <-ch:
			if !ok {
				c.teardown()
				return
			}
			c.handle(e)
		}
	}
}

func (c *Controller) handle(e event) {
	if c.status.Terminal() && e.kind != kindTick {
		if e.kind == kindCancel {
			replyTo(e, nil)
			return
		}
		replyTo(e, ErrClosed)
		return
	}

	switch e.kind {
	case kindStart:
		replyTo(e, c.onStart())
	case kindTick:
		c.onTick(e)
	case kindEdit:
		replyTo(e, c.onEdit(e.text))
	case kindFragment:
		c.onFragment(e.text)
	case kindSubmit:
		replyTo(e, c.onSubmit())
	case kindDraftSave:
		replyTo(e, c.onDraftSave())
	case kindTranscription:
		replyTo(e, c.onTranscriptionToggle())
	case kindFeedbackAck:
		replyTo(e, c.onFeedbackAck())
	case kindCancel:
		replyTo(e, c.onCancel())
	}
}

func (c *Controller) onStart() error {
	if c.status != model.StatusIdle {
		return ErrInvalidState
	}

	c.setStatus(model.StatusAwaitingQuestion)

	q, err := c.eval.StartSession(c.ctx, c.id)
	if err != nil {
		c.lastErr = err
		c.setStatus(model.StatusIdle)
		c.log.Warn(c.ctx, "session start failed", logger.String("session", c.id), logger.Error(err))
		return err
	}

	metrics.RecordSessionStarted()
	c.log.Info(c.ctx, "session started",
		logger.String("session", c.id),
		logger.String("question", q.ID),
		logger.Int("allocated", q.AllocatedSeconds),
	)
	c.beginQuestion(q)
	return nil
}

// beginQuestion arms the clock for q and seeds the answer buffer from
// an existing draft, if one survives from an earlier run. The draft is
// loaded before the clock is armed, so a resumed session sees its
// recovered text before the first tick.
func (c *Controller) beginQuestion(q model.Question) {
	c.question = &q
	c.buffer = ""
	c.result = nil
	c.lastErr = nil
	c.inFlight = false
	c.retried = false
	c.pendingAnswer = ""
	c.pendingElapsed = 0

	if text, ok, err := c.drafts.Load(c.ctx, q.ID); err != nil {
		c.log.Warn(c.ctx, "draft load failed", logger.String("question", q.ID), logger.Error(err))
	} else if ok {
		c.buffer = text
		metrics.RecordDraftLoad()
		c.log.Info(c.ctx, "draft restored", logger.String("question", q.ID))
	}

	c.remaining = q.AllocatedSeconds
	c.tickEpoch = c.clock.arm(q.AllocatedSeconds)
	c.setStatus(model.StatusActive)
}

func (c *Controller) onTick(e event) {
	if c.status != model.StatusActive || e.epoch != c.tickEpoch {
		return
	}

	c.remaining = e.remaining
	if e.remaining > 0 {
		c.publish()
		return
	}

	// Deadline reached. If a manual submit is already queued behind
	// this tick, let it carry the submission instead.
	if c.manualPending.Load() {
		c.publish()
		return
	}
	_ = c.beginSubmission(model.TriggerDeadline)
}

func (c *Controller) onEdit(text string) error {
	if c.status != model.StatusActive {
		return ErrInvalidState
	}
	c.buffer = text
	c.publish()
	return nil
}

func (c *Controller) onFragment(text string) {
	if c.status != model.StatusActive || !c.transcribing {
		return
	}
	c.buffer = answer.MergeFragment(c.buffer, text)
	metrics.RecordTranscriptionFragment()
	c.publish()
}

func (c *Controller) onSubmit() error {
	c.manualPending.Store(false)

	switch {
	case c.status == model.StatusActive:
		if c.inFlight {
			return nil
		}
		return c.beginSubmission(model.TriggerManual)
	case c.status == model.StatusSubmitting && !c.inFlight && c.pendingAnswer != "":
		// Manual retry of a failed submission, same finalized text.
		return c.performSubmit(model.TriggerManual)
	case c.status == model.StatusSubmitting:
		// Submission already in flight; the duplicate trigger is a no-op.
		return nil
	default:
		return ErrInvalidState
	}
}

// beginSubmission finalizes the answer exactly once per question: the
// clock and transcription stop, the buffer is snapshotted, and the
// evaluation call runs on the loop goroutine so no other event can
// interleave with the transition.
func (c *Controller) beginSubmission(trigger model.SubmitTrigger) error {
	c.inFlight = true
	c.setStatus(model.StatusSubmitting)

	c.clock.cancel()
	c.tickEpoch = 0
	c.stopTranscription()

	c.pendingAnswer = answer.Finalize(c.buffer)
	c.pendingElapsed = c.question.AllocatedSeconds - c.remaining

	metrics.RecordSubmission(string(trigger))
	c.log.Info(c.ctx, "submitting answer",
		logger.String("session", c.id),
		logger.String("question", c.question.ID),
		logger.String("trigger", string(trigger)),
		logger.Int("elapsed", c.pendingElapsed),
	)
	return c.performSubmit(trigger)
}

func (c *Controller) performSubmit(trigger model.SubmitTrigger) error {
	c.inFlight = true
	c.publish()

	start := time.Now()
	res, err := c.eval.SubmitAnswer(c.ctx, c.id, c.question.ID, c.pendingAnswer, c.pendingElapsed)
	if err != nil && errors.Is(err, evaluation.ErrServiceUnavailable) && !c.retried {
		c.retried = true
		metrics.RecordSubmissionRetry()
		c.log.Warn(c.ctx, "submission failed, retrying once",
			logger.String("question", c.question.ID), logger.Error(err))
		res, err = c.eval.SubmitAnswer(c.ctx, c.id, c.question.ID, c.pendingAnswer, c.pendingElapsed)
	}
	metrics.RecordSubmissionLatency(time.Since(start).Seconds())

	if err != nil {
		// The finalized answer is preserved; the session stays in
		// Submitting awaiting a manual retry.
		c.inFlight = false
		c.lastErr = err
		kind := "service_unavailable"
		if errors.Is(err, evaluation.ErrValidationRejected) {
			kind = "validation_rejected"
		}
		metrics.RecordSubmissionFailure(kind)
		c.log.Error(c.ctx, "submission failed",
			logger.String("question", c.question.ID),
			logger.String("kind", kind),
			logger.Error(err),
		)
		c.publish()
		return err
	}

	c.inFlight = false
	c.lastErr = nil
	c.drafts.Clear(c.ctx, c.question.ID)

	rec := model.QuestionRecord{
		Question:       *c.question,
		Answer:         c.pendingAnswer,
		ElapsedSeconds: c.pendingElapsed,
		Score:          res.Score,
		Feedback:       res.Feedback,
	}
	c.mu.Lock()
	c.records = append(c.records, rec)
	c.mu.Unlock()

	c.result = &res
	c.setStatus(model.StatusFeedback)
	c.log.Info(c.ctx, "submission accepted",
		logger.String("question", c.question.ID),
		logger.Float64("score", res.Score),
		logger.String("outcome", string(res.Outcome)),
		logger.String("trigger", string(trigger)),
	)
	return nil
}

func (c *Controller) onDraftSave() error {
	if c.status != model.StatusActive || c.question == nil {
		return ErrInvalidState
	}

	qid := c.question.ID
	text := c.buffer
	metrics.RecordDraftSave()
	c.drafts.Save(c.ctx, qid, text)

	// Server-side copy is best effort; failure never affects state.
	go func() {
		if err := c.eval.SaveDraft(c.ctx, c.id, qid, text); err != nil {
			c.log.Debug(c.ctx, "remote draft save failed", logger.String("question", qid), logger.Error(err))
		}
	}()
	return nil
}

func (c *Controller) onTranscriptionToggle() error {
	if c.status != model.StatusActive {
		return ErrInvalidState
	}

	if c.transcribing {
		c.stopTranscription()
		c.publish()
		return nil
	}

	ch, err := c.source.Start(c.ctx)
	if err != nil {
		if errors.Is(err, transcribe.ErrAlreadyRunning) {
			c.transcribing = true
			c.publish()
		}
		return err
	}

	c.transcribing = true
	go c.forwardFragments(ch)
	c.publish()
	return nil
}

// forwardFragments posts source fragments into the event queue until
// the source channel closes. Fragments queued after the source is
// stopped are dropped by the loop's transcribing guard.
func (c *Controller) forwardFragments(ch <-chan string) {
	for frag := range ch {
		_ = c.queue.enqueue(event{kind: kindFragment, text: frag})
	}
}

func (c *Controller) stopTranscription() {
	if !c.transcribing {
		return
	}
	c.transcribing = false
	if err := c.source.Stop(); err != nil && !errors.Is(err, transcribe.ErrNotRunning) {
		c.log.Warn(c.ctx, "transcription stop failed", logger.Error(err))
	}
}

func (c *Controller) onFeedbackAck() error {
	if c.status != model.StatusFeedback || c.result == nil {
		return ErrInvalidState
	}

	res := c.result
	c.result = nil

	switch res.Outcome {
	case model.OutcomeNext:
		if res.Next == nil {
			c.finish(model.StatusCompleted)
			return nil
		}
		c.beginQuestion(*res.Next)
	case model.OutcomeTerminated:
		c.finish(model.StatusTerminated)
	case model.OutcomeCompleted:
		c.finish(model.StatusCompleted)
	default:
		c.finish(model.StatusCompleted)
	}
	return nil
}

func (c *Controller) onCancel() error {
	c.clock.cancel()
	c.tickEpoch = 0
	c.finish(model.StatusTerminated)
	return nil
}

func (c *Controller) finish(st model.Status) {
	c.clock.cancel()
	c.tickEpoch = 0
	c.stopTranscription()
	c.question = nil
	c.remaining = 0
	c.setStatus(st)
	metrics.RecordSessionFinished(string(st))
	c.log.Info(c.ctx, "session finished", logger.String("session", c.id), logger.String("status", string(st)))
}

func (c *Controller) teardown() {
	c.clock.cancel()
	c.stopTranscription()
}

func (c *Controller) setStatus(st model.Status) {
	c.status = st
	c.publish()
}

// publish rebuilds the readable snapshot from loop-owned state and
// fans it out to subscribers without blocking.
func (c *Controller) publish() {
	snap := model.Snapshot{
		SessionID:        c.id,
		Status:           c.status,
		RemainingSeconds: c.remaining,
		Answer:           c.buffer,
		SubmitInFlight:   c.inFlight,
		Transcribing:     c.transcribing,
		Result:           c.result,
	}
	if c.question != nil {
		q := *c.question
		snap.Question = &q
	}
	if c.lastErr != nil {
		snap.LastError = c.lastErr.Error()
	}

	c.mu.Lock()
	snap.AnsweredCount = len(c.records)
	if n := len(c.records); n > 0 {
		var sum float64
		for _, r := range c.records {
			sum += r.Score
		}
		snap.MeanScore = sum / float64(n)
	}
	c.snapshot = snap
	for sub := range c.subs {
		select {
		case sub <- snap:
		default:
		}
	}
	c.mu.Unlock()
}
