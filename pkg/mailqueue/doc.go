// Package mailqueue provides a batched, rate-limited delivery queue for
// outbound email with three priority lanes and retry backoff.
//
// Tasks are enqueued into high, normal or low lanes and drained strictly in
// that order: the high lane empties before any normal task is dispatched.
// A background loop processes one batch every interval, checking a
// ratelimit.Limiter before each batch so a denied check never drops or
// consumes tasks. Failed sends re-queue with exponential backoff until the
// per-task retry budget is spent, after which the task is dropped and a
// single failed event is emitted.
//
//	sender, _ := mailer.NewFailoverSender(providers)
//	q, _ := mailqueue.New(sender, mailqueue.Config{},
//		mailqueue.WithLimiter(limiter),
//		mailqueue.WithObserver(mailqueue.NewLogObserver(log)),
//	)
//	_ = q.Start(ctx)
//	defer q.Stop()
//
//	id, err := q.Enqueue(msg, mailqueue.PriorityHigh)
//
// Observers receive processed, retried and failed events synchronously from
// the delivery loop and must return quickly.
package mailqueue
