// Package notifier orchestrates the notification pipeline: it persists
// records, serves cached read paths and decides delivery side effects
// without executing them.
//
// Send stores the record first and returns it together with a list of
// intents. Intents are decisions, not effects: a RealtimeIntent names the
// topic to push to, an EmailIntent carries a fully rendered message and
// lane. The Dispatcher executes intents best-effort; a dead hub or a full
// mail queue is logged and never unwinds a stored notification.
//
//	svc, _ := notifier.NewService(storage)
//	d := notifier.NewDispatcher(
//		notifier.WithPublisher(notifier.NewHubPublisher(hub)),
//		notifier.WithEnqueuer(queue),
//	)
//
//	record, err := d.SendAndDispatch(ctx, svc, userID, notifier.Input{
//		Type:    "module_assigned",
//		Title:   "New module",
//		Message: "Security Basics was assigned to you",
//	})
//
// Unread counts and recent lists are read-through cached with short TTLs;
// every write for a user drops that user's cached entries.
package notifier
