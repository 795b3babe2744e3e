// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package querycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/yourviews/backend"
)

// Key identifies a cached query. Invalidation matches by prefix.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether k starts with every part of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, part := range prefix {
		if k[i] != part {
			return false
		}
	}
	return true
}

func (k Key) id() string {
	return strings.Join(k, "\x00")
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FetchFunc loads the data for a key.
type FetchFunc func(ctx context.Context) (any, error)

// Snapshot is a point-in-time copy of an entry.
type Snapshot struct {
	Key           Key
	Status        Status
	Data          any
	Err           error
	LastFetchedAt time.Time
	Stale         bool
}

type Options struct {
	StaleTime  time.Duration
	GCTime     time.Duration
	Retries    int
	RetryDelay time.Duration
	// Retryable decides whether a failed fetch is tried again.
	Retryable func(error) bool
	Now       func() time.Time
}

func (o Options) withDefaults() Options {
	if o.StaleTime <= 0 {
		o.StaleTime = 5 * time.Minute
	}
	if o.GCTime <= 0 {
		o.GCTime = 10 * time.Minute
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryDelay < time.Millisecond {
		o.RetryDelay = time.Millisecond
	}
	if o.Retryable == nil {
		o.Retryable = DefaultRetryable
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// DefaultRetryable retries everything except missing rows, bad tokens and
// cancellation.
func DefaultRetryable(err error) bool {
	switch {
	case errors.Is(err, backend.ErrNotFound),
		errors.Is(err, backend.ErrInvalidToken),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

type subscriber struct {
	mu     sync.Mutex
	closed atomic.Bool
	fn     func(Snapshot)
}

type entry struct {
	key         Key
	id          string
	status      Status
	data        any
	err         error
	fetchedAt   time.Time
	lastUsed    time.Time
	invalidated bool
	epoch       uint64 // bumped by Invalidate; new reads stop joining old fetches
	issued      uint64 // generation of the newest fetch started
	applied     uint64 // generation of the result currently held
	inflight    int
	fetch       FetchFunc
	subs        map[uint64]*subscriber
}

// Cache is a keyed query cache shared by all requests.
type Cache struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	nextSub uint64
}

func New(opts Options) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		opts:    opts.withDefaults(),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}
}

// Close cancels in-flight fetches.
func (c *Cache) Close() {
	c.cancel()
}

func (c *Cache) entryLocked(key Key) *entry {
	id := key.id()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{
			key:    append(Key(nil), key...),
			id:     id,
			status: StatusIdle,
			subs:   make(map[uint64]*subscriber),
		}
		c.entries[id] = e
	}
	return e
}

func (c *Cache) staleLocked(e *entry, now time.Time) bool {
	return e.invalidated || e.status != StatusSuccess || now.Sub(e.fetchedAt) >= c.opts.StaleTime
}

func (c *Cache) snapshotLocked(e *entry, now time.Time) Snapshot {
	return Snapshot{
		Key:           e.key,
		Status:        e.status,
		Data:          e.data,
		Err:           e.err,
		LastFetchedAt: e.fetchedAt,
		Stale:         c.staleLocked(e, now),
	}
}

// Fetch returns the data for key. Fresh data is returned as is. Data that
// aged past StaleTime is returned immediately while a background refetch
// runs. Invalidated, failed or missing entries wait for a new fetch.
func (c *Cache) Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	now := c.opts.Now()

	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetch = fn
	e.lastUsed = now
	if e.status == StatusSuccess && !e.invalidated {
		data := e.data
		stale := c.staleLocked(e, now)
		c.mu.Unlock()
		if stale {
			c.refresh(e, fn)
		}
		return data, nil
	}
	c.mu.Unlock()

	return c.load(ctx, e, fn)
}

// refresh refetches in the background.
func (c *Cache) refresh(e *entry, fn FetchFunc) {
	go func() {
		_, _ = c.load(c.ctx, e, fn)
	}()
}

// load joins or starts the fetch for the entry's current epoch.
func (c *Cache) load(ctx context.Context, e *entry, fn FetchFunc) (any, error) {
	c.mu.Lock()
	flightKey := e.id + "#" + strconv.FormatUint(e.epoch, 10)
	c.mu.Unlock()

	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.run(e, fn)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run executes one fetch with retries and applies its result if no newer
// fetch has been applied since it started. A result from before an
// Invalidate is kept but leaves the entry stale.
func (c *Cache) run(e *entry, fn FetchFunc) (any, error) {
	c.mu.Lock()
	e.issued++
	gen := e.issued
	epoch := e.epoch
	e.inflight++
	if e.status != StatusSuccess {
		e.status = StatusLoading
	}
	c.mu.Unlock()

	backoff := retry.WithMaxRetries(uint64(c.opts.Retries), retry.NewConstant(c.opts.RetryDelay))
	data, err := retry.DoValue(c.ctx, backoff, func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil && c.opts.Retryable(err) {
			return nil, retry.RetryableError(err)
		}
		return v, err
	})

	now := c.opts.Now()

	c.mu.Lock()
	e.inflight--
	var (
		notify []*subscriber
		snap   Snapshot
	)
	if gen > e.applied {
		e.applied = gen
		if err != nil {
			e.status = StatusError
			e.err = err
		} else {
			e.status = StatusSuccess
			e.data = data
			e.err = nil
			if epoch == e.epoch {
				e.fetchedAt = now
				e.invalidated = false
			}
		}
		snap = c.snapshotLocked(e, now)
		for _, s := range e.subs {
			notify = append(notify, s)
		}
	}
	c.mu.Unlock()

	if err != nil {
		slog.Warn("query failed", "key", e.key.String(), "error", err)
	}

	for _, s := range notify {
		s.deliver(snap)
	}

	return data, err
}

func (s *subscriber) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}
	s.fn(snap)
}

// Subscribe registers fn for every applied result of key. It starts a fetch
// when the entry has no fresh data and delivers cached data right away.
// The returned func unsubscribes; once it returns fn is never called
// again. fn must not call it synchronously.
func (c *Cache) Subscribe(key Key, fetch FetchFunc, fn func(Snapshot)) (unsubscribe func()) {
	now := c.opts.Now()
	sub := &subscriber{fn: fn}

	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetch = fetch
	e.lastUsed = now
	c.nextSub++
	subID := c.nextSub
	e.subs[subID] = sub
	hasData := e.status == StatusSuccess
	snap := c.snapshotLocked(e, now)
	needFetch := snap.Stale && e.inflight == 0
	c.mu.Unlock()

	if hasData {
		sub.deliver(snap)
	}
	if needFetch || !hasData {
		c.refresh(e, fetch)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.closed.Store(true)
			c.mu.Lock()
			delete(e.subs, subID)
			e.lastUsed = c.opts.Now()
			c.mu.Unlock()
			// Wait out a delivery already in progress.
			sub.mu.Lock()
			sub.mu.Unlock()
		})
	}
}

// Invalidate marks every entry under prefix stale. Entries with
// subscribers are refetched right away; the rest refetch on next read.
// It returns the number of entries matched.
func (c *Cache) Invalidate(prefix Key) int {
	type refetch struct {
		e  *entry
		fn FetchFunc
	}

	var (
		matched int
		pending []refetch
	)

	c.mu.Lock()
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		matched++
		e.invalidated = true
		e.epoch++
		if len(e.subs) > 0 && e.fetch != nil {
			pending = append(pending, refetch{e, e.fetch})
		}
	}
	c.mu.Unlock()

	for _, r := range pending {
		c.refresh(r.e, r.fn)
	}

	slog.Debug("queries invalidated", "prefix", prefix.String(), "matched", matched)
	return matched
}

// Mutate runs a write and invalidates keys when it succeeds. Failures are
// logged here once so callers only render them.
func (c *Cache) Mutate(ctx context.Context, fn func(ctx context.Context) error, keys ...Key) error {
	if err := fn(ctx); err != nil {
		slog.Error("mutation failed", "error", err)
		return err
	}
	for _, k := range keys {
		c.Invalidate(k)
	}
	return nil
}

// Peek returns the entry for key without fetching.
func (c *Cache) Peek(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.id()]
	if !ok {
		return Snapshot{}, false
	}
	return c.snapshotLocked(e, c.opts.Now()), true
}

// Prune drops entries nobody watches that were last used more than
// GCTime ago. It returns the number removed.
func (c *Cache) Prune() int {
	now := c.opts.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, e := range c.entries {
		if len(e.subs) > 0 || e.inflight > 0 {
			continue
		}
		if now.Sub(e.lastUsed) >= c.opts.GCTime {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Query is a typed Fetch.
func Query[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: key %s holds %T", key, v)
	}
	return t, nil
}
