// Package mailer is the outbound email transport of the notification
// pipeline.
//
// A FailoverSender tries an ordered list of providers (primary, then
// backups); each provider gets a small budget of local attempts with
// exponential backoff before the sender falls through to the next one. Only
// when every provider and retry is spent does a send fail, with
// ErrDeliveryExhausted. Every attempt, success or failure, is recorded to a
// best-effort Monitor off the send path.
//
// Bodies are rendered through a template Registry. Unregistered template
// names deliberately resolve to the FallbackTemplate, which builds a minimal
// body from the notification's title and message, so a missing template
// asset can never block delivery.
package mailer
