// Package mongoconn bootstraps the MongoDB client backing the notification
// record store. Connection parameters come from the environment.
package mongoconn
