// Package respcache holds the response cache backends for GET requests and
// the detached Writer that populates them off the request path.
//
// Entries are gob encoded. BigCache keeps them in process memory, Memcached
// shares them between gateway instances, and Nop disables caching.
package respcache
