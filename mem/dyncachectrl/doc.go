// Package dyncachectrl provides a controller that sits between one requester
// and several memory paths: a direct path to memory and cached paths of three
// sizes.
//
// For every incoming request the controller reads a policy signal (the number
// of instructions the requester has retired), selects a path and forwards the
// request. It keeps at most one request that a path refused, and answers the
// requester with a retry once that request got through. When the selected
// path changes from a cached one to the direct one, the controller flushes the
// cache it leaves and lets no request through until the cache reports that
// the flush completed.
//
// The controller is wired like this:
//
//	requester --TopPort-- Comp --DirectPort-------- memory
//	                           --CacheSmallPort---- small cache
//	                           --CacheMediumPort--- medium cache
//	                           --CacheLargePort---- large cache
//
// The caches must be given the controller as their mem.FlushListener.
package dyncachectrl
