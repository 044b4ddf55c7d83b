package mailqueue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/notifykit/pkg/logger"
	"github.com/skillforge/notifykit/pkg/mailer"
	"github.com/skillforge/notifykit/pkg/ratelimit"
)

// rateMetric is the limiter metric the delivery loop checks and records.
const rateMetric = "email"

// Config holds delivery queue configuration.
type Config struct {
	BatchSize      int           `env:"MAILQUEUE_BATCH_SIZE" envDefault:"5"`
	MaxQueueSize   int           `env:"MAILQUEUE_MAX_SIZE" envDefault:"1000"`
	MaxRetries     int           `env:"MAILQUEUE_MAX_RETRIES" envDefault:"3"`
	BatchInterval  time.Duration `env:"MAILQUEUE_BATCH_INTERVAL" envDefault:"3s"`
	RateLimitPause time.Duration `env:"MAILQUEUE_RATE_LIMIT_PAUSE" envDefault:"60s"`
	RetryBaseDelay time.Duration `env:"MAILQUEUE_RETRY_BASE_DELAY" envDefault:"1m"`
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 1000
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BatchInterval <= 0 {
		c.BatchInterval = 3 * time.Second
	}
	if c.RateLimitPause <= 0 {
		c.RateLimitPause = time.Minute
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = time.Minute
	}
	return c
}

// Queue buffers outbound emails in three priority lanes and dispatches them
// in batches through a Sender. Lanes drain strictly in priority order.
type Queue struct {
	cfg     Config
	sender  mailer.Sender
	limiter *ratelimit.Limiter
	logger  *slog.Logger

	mu    sync.Mutex
	lanes map[Priority][]*Task

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int

	statsMu   sync.Mutex
	processed uint64
	failed    uint64
	retried   uint64
	totalWait time.Duration

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Queue.
type Option func(*Queue)

// WithLimiter sets the send-rate limiter. Without one the loop dispatches
// every batch immediately.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(q *Queue) { q.limiter = l }
}

// WithLogger sets the logger for the queue.
func WithLogger(log *slog.Logger) Option {
	return func(q *Queue) {
		if log != nil {
			q.logger = log
		}
	}
}

// WithObserver subscribes an observer at construction time.
func WithObserver(o Observer) Option {
	return func(q *Queue) {
		if o != nil {
			q.observers[q.nextObsID] = o
			q.nextObsID++
		}
	}
}

// New creates a delivery queue dispatching through sender. Zero config
// fields fall back to defaults.
func New(sender mailer.Sender, cfg Config, opts ...Option) (*Queue, error) {
	if sender == nil {
		return nil, ErrSenderNil
	}

	q := &Queue{
		cfg:    cfg.withDefaults(),
		sender: sender,
		logger: slog.Default(),
		lanes: map[Priority][]*Task{
			PriorityHigh:   nil,
			PriorityNormal: nil,
			PriorityLow:    nil,
		},
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(q)
	}

	return q, nil
}

// Enqueue adds a message to its priority lane and returns the task ID.
// High-priority tasks go to the front of their lane, others to the back.
// When the queue is at capacity it returns ErrQueueFull without blocking and
// without modifying any lane.
func (q *Queue) Enqueue(msg mailer.Message, priority Priority) (uuid.UUID, error) {
	if !priority.Valid() {
		return uuid.Nil, ErrInvalidPriority
	}
	if err := msg.Validate(); err != nil {
		return uuid.Nil, err
	}

	task := &Task{
		ID:         uuid.New(),
		Message:    msg,
		Priority:   priority,
		MaxRetries: q.cfg.MaxRetries,
		AddedAt:    time.Now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lengthLocked() >= q.cfg.MaxQueueSize {
		return uuid.Nil, ErrQueueFull
	}

	if priority == PriorityHigh {
		q.lanes[priority] = append([]*Task{task}, q.lanes[priority]...)
	} else {
		q.lanes[priority] = append(q.lanes[priority], task)
	}

	return task.ID, nil
}

// ProcessBatch dispatches one batch synchronously: it checks the rate
// limiter, drains up to BatchSize ready tasks in strict lane order and sends
// them concurrently. Returns the number of dispatched tasks. A denied rate
// check returns ErrRateLimited and leaves the queue untouched.
//
// The background loop calls ProcessBatch every BatchInterval; calling it
// directly is safe and useful for draining on demand.
func (q *Queue) ProcessBatch(ctx context.Context) (int, error) {
	if q.limiter != nil {
		res, err := q.limiter.Allow(ctx, rateMetric)
		if err != nil {
			return 0, err
		}
		if !res.Allowed {
			q.logger.LogAttrs(ctx, slog.LevelWarn, "send rate limit reached, batch skipped",
				slog.String("window", res.Window),
				slog.Time("reset_at", res.ResetAt),
			)
			return 0, ErrRateLimited
		}
	}

	batch := q.dequeueBatch(time.Now())
	if len(batch) == 0 {
		return 0, nil
	}

	// Task outcomes are independent; one failure never aborts the batch.
	var wg sync.WaitGroup
	for _, task := range batch {
		wg.Add(1)
		go func(task *Task) {
			defer wg.Done()
			q.dispatch(ctx, task)
		}(task)
	}
	wg.Wait()

	return len(batch), nil
}

// dequeueBatch removes up to BatchSize ready tasks, walking lanes in
// priority order. Tasks whose retry delay has not elapsed keep their lane
// position.
func (q *Queue) dequeueBatch(now time.Time) []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := make([]*Task, 0, q.cfg.BatchSize)
	for _, lane := range []Priority{PriorityHigh, PriorityNormal, PriorityLow} {
		if len(batch) == q.cfg.BatchSize {
			break
		}

		remaining := q.lanes[lane][:0]
		for _, task := range q.lanes[lane] {
			if len(batch) < q.cfg.BatchSize && task.Ready(now) {
				batch = append(batch, task)
			} else {
				remaining = append(remaining, task)
			}
		}
		q.lanes[lane] = remaining
	}

	return batch
}

// dispatch sends one task and settles its outcome: success records the send
// against the limiter, failure either re-queues with backoff or drops the
// task once its retry budget is spent.
func (q *Queue) dispatch(ctx context.Context, task *Task) {
	res, err := q.sender.Send(ctx, task.Message)
	now := time.Now()

	if err == nil {
		if q.limiter != nil {
			if recErr := q.limiter.Record(ctx, rateMetric); recErr != nil {
				q.logger.LogAttrs(ctx, slog.LevelWarn, "failed to record send against rate limit",
					logger.Error(recErr))
			}
		}

		q.statsMu.Lock()
		q.processed++
		q.totalWait += now.Sub(task.AddedAt)
		q.statsMu.Unlock()

		q.logger.LogAttrs(ctx, slog.LevelDebug, "mail task delivered",
			logger.TaskID(task.ID.String()),
			logger.Provider(res.Provider),
			logger.Lane(string(task.Priority)),
			logger.Duration(now.Sub(task.AddedAt)),
		)
		q.notify(Event{Kind: EventProcessed, Task: *task, At: now})
		return
	}

	task.Attempts++
	task.LastErr = err.Error()

	if task.Attempts >= task.MaxRetries {
		q.statsMu.Lock()
		q.failed++
		q.statsMu.Unlock()
		q.notify(Event{Kind: EventFailed, Task: *task, Err: err, At: now})
		return
	}

	// Exponential backoff: base * 3^attempts.
	delay := q.cfg.RetryBaseDelay
	for i := 0; i < task.Attempts; i++ {
		delay *= 3
	}
	task.ScheduledAt = now.Add(delay)

	q.logger.LogAttrs(ctx, slog.LevelDebug, "mail task scheduled for retry",
		logger.TaskID(task.ID.String()),
		logger.RetryCount(task.Attempts),
		logger.Duration(delay),
	)

	q.mu.Lock()
	q.lanes[task.Priority] = append([]*Task{task}, q.lanes[task.Priority]...)
	q.mu.Unlock()

	q.statsMu.Lock()
	q.retried++
	q.statsMu.Unlock()
	q.notify(Event{Kind: EventRetried, Task: *task, Err: err, At: now})
}

// Subscribe registers an observer for delivery events and returns its
// unsubscribe function. Observers may be notified concurrently.
func (q *Queue) Subscribe(o Observer) func() {
	if o == nil {
		return func() {}
	}

	q.obsMu.Lock()
	id := q.nextObsID
	q.nextObsID++
	q.observers[id] = o
	q.obsMu.Unlock()

	return func() {
		q.obsMu.Lock()
		delete(q.observers, id)
		q.obsMu.Unlock()
	}
}

func (q *Queue) notify(event Event) {
	q.obsMu.Lock()
	observers := make([]Observer, 0, len(q.observers))
	for _, o := range q.observers {
		observers = append(observers, o)
	}
	q.obsMu.Unlock()

	for _, o := range observers {
		o.Notify(event)
	}
}

// Stats is a point-in-time snapshot of the queue.
type Stats struct {
	Length    int // Total pending tasks across all lanes
	High      int
	Normal    int
	Low       int
	Processed uint64
	Failed    uint64 // Tasks dropped after exhausting retries
	Retried   uint64 // Re-queue events, not distinct tasks
	AvgWait   time.Duration
}

// Stats returns a snapshot of lane depths and lifetime counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	s := Stats{
		Length: q.lengthLocked(),
		High:   len(q.lanes[PriorityHigh]),
		Normal: len(q.lanes[PriorityNormal]),
		Low:    len(q.lanes[PriorityLow]),
	}
	q.mu.Unlock()

	q.statsMu.Lock()
	s.Processed = q.processed
	s.Failed = q.failed
	s.Retried = q.retried
	if q.processed > 0 {
		s.AvgWait = q.totalWait / time.Duration(q.processed)
	}
	q.statsMu.Unlock()

	return s
}

// Length returns the total number of pending tasks.
func (q *Queue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lengthLocked()
}

func (q *Queue) lengthLocked() int {
	return len(q.lanes[PriorityHigh]) + len(q.lanes[PriorityNormal]) + len(q.lanes[PriorityLow])
}

// Clear discards all pending tasks. Lifetime counters are kept.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for lane := range q.lanes {
		q.lanes[lane] = nil
	}
}

// Start launches the background delivery loop. The loop runs until Stop is
// called or ctx is cancelled.
func (q *Queue) Start(ctx context.Context) error {
	q.runMu.Lock()
	defer q.runMu.Unlock()

	if q.cancel != nil {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	q.wg.Add(1)
	go q.run(loopCtx)

	q.logger.LogAttrs(ctx, slog.LevelInfo, "mail queue started",
		logger.Component("mailqueue"),
		slog.Int("batch_size", q.cfg.BatchSize),
		slog.Duration("batch_interval", q.cfg.BatchInterval),
	)
	return nil
}

// Stop halts the delivery loop and waits for any in-flight batch to settle.
// Pending tasks stay queued.
func (q *Queue) Stop() error {
	q.runMu.Lock()
	cancel := q.cancel
	q.cancel = nil
	q.runMu.Unlock()

	if cancel == nil {
		return ErrNotStarted
	}

	cancel()
	q.wg.Wait()
	q.logger.Info("mail queue stopped")
	return nil
}

// Run returns a function suitable for errgroup: it starts the loop, waits
// for ctx cancellation and stops cleanly.
func (q *Queue) Run(ctx context.Context) func() error {
	return func() error {
		if err := q.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return q.Stop()
	}
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()

	ticker := time.NewTicker(q.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := q.ProcessBatch(ctx); err != nil {
				if errors.Is(err, ErrRateLimited) {
					q.pause(ctx)
					continue
				}
				if ctx.Err() != nil {
					return
				}
				q.logger.LogAttrs(ctx, slog.LevelError, "batch processing failed",
					logger.Error(err))
			}
		}
	}
}

// pause sleeps for RateLimitPause after a denied rate check so the loop does
// not hammer the limiter store.
func (q *Queue) pause(ctx context.Context) {
	timer := time.NewTimer(q.cfg.RateLimitPause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
