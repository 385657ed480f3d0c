package feed

import (
	"context"
	"errors"
	"sync"

	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/observability"
	"twitterclone/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("feed assembler closed")

// Assembler reads feeds and re-delivers them to subscribers after relevant changes.
type Assembler struct {
	posts    repository.PostRepository
	comments repository.CommentRepository

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewAssembler(posts repository.PostRepository, comments repository.CommentRepository) *Assembler {
	return &Assembler{
		posts:    posts,
		comments: comments,
		subs:     make(map[*Subscription]struct{}),
	}
}

// Fetch computes q once.
func (a *Assembler) Fetch(ctx context.Context, q Query) (res *Result, err error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctx, "feed", "fetch",
		attribute.String("feed.kind", string(q.Kind)),
		attribute.String("feed.user", q.UserID))
	defer func() { observability.EndSpan(span, err) }()

	limit := repository.ClampLimit(q.Limit)
	res = &Result{Kind: q.Kind, UserID: q.UserID, Posts: []*models.Post{}, Replies: []Reply{}}

	switch q.Kind {
	case KindGlobal:
		posts, err := a.posts.List(ctx, limit, 0, q.ViewerID)
		if err != nil {
			return nil, err
		}
		res.Posts = append(res.Posts, posts...)
	case KindAuthored:
		posts, err := a.posts.ListByAuthor(ctx, q.UserID, limit, 0, q.ViewerID)
		if err != nil {
			return nil, err
		}
		res.Posts = append(res.Posts, posts...)
	case KindReplies:
		replies, err := a.replies(ctx, q.UserID, limit)
		if err != nil {
			return nil, err
		}
		res.Replies = replies
	}
	return res, nil
}

func (a *Assembler) replies(ctx context.Context, userID string, limit int) ([]Reply, error) {
	comments, err := a.comments.ListByAuthor(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return []Reply{}, nil
	}

	ids := make([]string, 0, len(comments))
	seen := make(map[string]bool, len(comments))
	for _, c := range comments {
		if !seen[c.PostID] {
			seen[c.PostID] = true
			ids = append(ids, c.PostID)
		}
	}
	parents, err := a.posts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Reply, 0, len(comments))
	for _, c := range comments {
		out = append(out, Reply{Comment: c, PostID: c.PostID, Post: parents[c.PostID]})
	}
	return out, nil
}

// Subscribe delivers the current result of q and then a full recomputed
// result after every relevant change. Deliveries for one subscription never
// overlap, and changes that arrive during a recomputation are coalesced into
// one more delivery. The subscription ends on Close or when ctx is done.
func (a *Assembler) Subscribe(ctx context.Context, q Query, deliver func(*Result)) (*Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		assembler: a,
		query:     q,
		deliver:   deliver,
		dirty:     make(chan struct{}, 1),
		ctx:       subCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	// Registered before the initial read so a change committed during it
	// marks the subscription dirty instead of being lost.
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	a.subs[s] = struct{}{}
	a.mu.Unlock()
	observability.FeedSubscriptions.WithLabelValues(string(q.Kind)).Inc()

	initial, err := a.Fetch(subCtx, q)
	if err != nil {
		s.Close()
		return nil, err
	}

	go s.run(initial)
	return s, nil
}

// Invalidate marks every subscription affected by change as dirty.
func (a *Assembler) Invalidate(change models.Change) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for s := range a.subs {
		if s.query.Affected(change) {
			s.markDirty()
		}
	}
}

// Close ends every subscription. Later Subscribe calls fail with ErrClosed.
func (a *Assembler) Close() {
	a.mu.Lock()
	a.closed = true
	subs := make([]*Subscription, 0, len(a.subs))
	for s := range a.subs {
		subs = append(subs, s)
	}
	a.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

// Len returns the number of live subscriptions.
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs)
}

func (a *Assembler) remove(s *Subscription) {
	a.mu.Lock()
	delete(a.subs, s)
	a.mu.Unlock()
}

// Subscription is one live feed.
type Subscription struct {
	assembler *Assembler
	query     Query
	deliver   func(*Result)
	dirty     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// Query returns the subscribed query.
func (s *Subscription) Query() Query { return s.query }

// Done is closed when the delivery loop has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close stops the subscription. It is idempotent and safe to call from the
// deliver callback. A delivery already running may complete; none starts
// afterwards.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.assembler.remove(s)
	observability.FeedSubscriptions.WithLabelValues(string(s.query.Kind)).Dec()
}

func (s *Subscription) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Subscription) run(initial *Result) {
	defer close(s.done)
	defer s.Close()

	if !s.emit(initial) {
		return
	}
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.dirty:
		}

		res, err := s.assembler.Fetch(s.ctx, s.query)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			observability.FeedDeliveries.WithLabelValues(string(s.query.Kind), "error").Inc()
			middleware.Logger.ErrorContext(s.ctx, "feed recompute failed",
				"kind", s.query.Kind, "user", s.query.UserID, "error", err)
			continue
		}
		if !s.emit(res) {
			return
		}
	}
}

func (s *Subscription) emit(res *Result) bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false
	}
	s.deliver(res)
	observability.FeedDeliveries.WithLabelValues(string(s.query.Kind), "ok").Inc()
	return true
}
