// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package querycache is the keyed read cache shared by every request.

Keys are ordered string parts such as ["poll", id] or ["polls"].
Invalidate matches by prefix, so invalidating ["polls"] also marks
["polls", "topic", id] stale.

# Reads

	poll, err := querycache.Query(ctx, cache, queries.PollKey(id), func(ctx context.Context) (*models.Poll, error) {
		return fetcher.FetchPoll(ctx, id)
	})

Concurrent reads of one key share a single fetch (singleflight). Failed
fetches retry with a constant backoff (go-retry) unless Retryable says
otherwise; not-found errors fail at once.

Fresh data is served from memory. Data older than StaleTime is served
as is while a background refetch runs. Entries marked by Invalidate wait
for the refetch, so a page read right after a mutation sees its effect.

# Ordering

Every fetch of a key gets a generation number. A result is applied only
when its generation is newer than the one already applied, so a slow
fetch started before an invalidation cannot overwrite a newer result.

# Subscribers

Subscribe delivers every applied result of a key to a callback until the
returned unsubscribe func is called. Invalidate refetches subscribed
entries immediately; live poll results are built on this.

# Writes

Mutate runs a write and invalidates the given keys on success. Failures
are logged once as "mutation failed".

Prune removes entries that have no subscribers and were not read for
GCTime. The jobs package schedules it.
*/
package querycache
