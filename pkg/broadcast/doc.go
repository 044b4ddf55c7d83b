// Package broadcast provides a topic-keyed in-memory publish/subscribe hub.
//
// The notification pipeline publishes realtime events on per-user topics
// ("user-{id}"); transport layers (SSE, WebSocket) subscribe and stream the
// payloads to clients. Delivery is best effort: publishing never blocks, and
// subscribers with full buffers miss messages rather than stalling senders.
package broadcast
