// Package redis implements store.Store on go-redis for deployments that
// keep pipeline state in Redis. Records are stored as msgpack values,
// staleness and creation times live in Sorted Sets so range queries stay
// cheap, and the dead letter job index is a Hash written with HSETNX to
// keep routing idempotent.
//
// The caller owns the Redis client lifecycle -- the store never closes it.
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	s := redis.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis
