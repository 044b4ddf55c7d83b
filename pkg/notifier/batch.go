package notifier

import (
	"context"
	"time"

	"github.com/skillforge/notifykit/pkg/async"
	"github.com/skillforge/notifykit/pkg/notification"
)

// emailStagger is the delay between email-bearing items in a batch so a
// burst never lands on the provider all at once.
const emailStagger = time.Second

// BatchItem is one send in a batch.
type BatchItem struct {
	UserID string
	Input  Input
}

// BatchOutcome is the per-item result of ProcessBatch. Outcomes keep the
// input order.
type BatchOutcome struct {
	Record  *notification.Notification
	Intents []Intent
	Err     error
}

// ProcessBatch sends many notifications with per-item isolation: one failed
// item never aborts the rest. Items without an email run concurrently;
// email-bearing items run sequentially with a short stagger between them.
func (s *Service) ProcessBatch(ctx context.Context, items []BatchItem) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(items))

	type indexed struct {
		idx  int
		item BatchItem
	}
	var direct, staggered []indexed
	for i, item := range items {
		if item.Input.SendEmail {
			staggered = append(staggered, indexed{idx: i, item: item})
		} else {
			direct = append(direct, indexed{idx: i, item: item})
		}
	}

	futures := make([]*async.Future[BatchOutcome], len(direct))
	for i, d := range direct {
		futures[i] = async.Run(ctx, d.item, func(ctx context.Context, item BatchItem) (BatchOutcome, error) {
			record, intents, err := s.Send(ctx, item.UserID, item.Input)
			return BatchOutcome{Record: record, Intents: intents, Err: err}, nil
		})
	}

	for i, d := range staggered {
		if i > 0 {
			select {
			case <-ctx.Done():
				outcomes[d.idx] = BatchOutcome{Err: ctx.Err()}
				continue
			case <-time.After(emailStagger):
			}
		}
		record, intents, err := s.Send(ctx, d.item.UserID, d.item.Input)
		outcomes[d.idx] = BatchOutcome{Record: record, Intents: intents, Err: err}
	}

	results, errs := async.AwaitAll(futures...)
	for i, d := range direct {
		if errs[i] != nil {
			outcomes[d.idx] = BatchOutcome{Err: errs[i]}
			continue
		}
		outcomes[d.idx] = results[i]
	}

	return outcomes
}
