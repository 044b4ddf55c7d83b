// Package notification defines the persisted notification record, its state
// transitions and the record store abstraction.
//
// A record is created unread and moves through read, acted_upon and dismissed
// via its transition methods. Transitions are deliberately permissive: the
// product places no guard against re-reading a dismissed notification.
// Records expire by TTL independent of state.
//
// Two stores are provided: MemoryStorage for development and testing and
// MongoStorage for production, which maps List/Count/Stats onto find,
// countDocuments and $group aggregations and uses a TTL index for expiry.
package notification
