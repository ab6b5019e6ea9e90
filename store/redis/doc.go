// Package redis provides a Redis-backed plan store with optional TTL.
package redis
