// package repositories provides the local persistence layer.
//
// The client keeps two things on disk: the bearer token backing the current
// session, and a cache of the last-seen job snapshots so job listings degrade
// to stale data instead of nothing when the backend is unreachable.
package repositories
