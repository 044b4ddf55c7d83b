// Package redisconn bootstraps the Redis client used by the shared rate
// window store. Connection parameters come from the environment.
package redisconn
