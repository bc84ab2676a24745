package coord

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ppiankov/persona/internal/model"
	"github.com/ppiankov/persona/internal/source"
)

// fetch tracks one refresh of a user's two activity streams
type fetch struct {
	coord  *Coordinator
	user   string
	log    *zap.Logger
	cursor model.Cursor
	known  map[string]struct{} // Fullnames already cached

	items   []model.Item
	pages   int
	calls   int
	err     error
	stopped string // set when fetching ended early but what was gathered is kept
}

// run fetches posts with half of limit, then comments with what is left
func (f *fetch) run(ctx context.Context, limit int) {
	postsErr := f.stream(ctx, model.KindPost, (limit+1)/2)
	if errors.Is(postsErr, source.ErrUnauthorized) || f.stopped != "" {
		f.err = postsErr
		return
	}

	var commentsErr error
	if remaining := limit - len(f.items); remaining > 0 {
		commentsErr = f.stream(ctx, model.KindComment, remaining)
	}
	f.err = combine(postsErr, commentsErr)
}

// combine reduces per-stream errors. A stream that does not exist is empty
// unless both are missing.
func combine(posts, comments error) error {
	for _, err := range []error{posts, comments} {
		if errors.Is(err, source.ErrUnauthorized) {
			return err
		}
	}
	postsMissing := errors.Is(posts, source.ErrNotFound)
	commentsMissing := errors.Is(comments, source.ErrNotFound)

	switch {
	case postsMissing && commentsMissing:
		return posts
	case postsMissing:
		return comments
	case commentsMissing:
		return posts
	case posts != nil:
		return posts
	default:
		return comments
	}
}

// stream fetches one kind within budget. Without cached items it pages from
// the stored cursor. Otherwise it first reads from the newest page until it
// reaches a cached item, then backfills older history from the stored cursor.
func (f *fetch) stream(ctx context.Context, kind model.ItemKind, budget int) error {
	stored := f.cursorFor(kind)
	if len(f.known) == 0 {
		_, _, err := f.walk(ctx, kind, stored, budget, true)
		return err
	}

	n, exhausted, err := f.walk(ctx, kind, "", budget, false)
	if err != nil || f.stopped != "" {
		return err
	}
	if exhausted {
		f.setCursor(kind, "")
		return nil
	}
	if stored == "" || budget-n <= 0 {
		return nil
	}

	f.log.Debug("backfilling older activity",
		zap.String("stream", string(kind)),
		zap.String("cursor", stored))
	_, _, err = f.walk(ctx, kind, stored, budget-n, true)
	return err
}

// walk pages through kind from cursor until budget items are gathered or the
// history ends. With track set the stored cursor follows each page; without
// it the walk stops at the first cached item. exhausted reports that the
// last page had no successor.
func (f *fetch) walk(ctx context.Context, kind model.ItemKind, cursor string, budget int, track bool) (n int, exhausted bool, err error) {
	retries := 0

	for budget > 0 {
		page, err := f.call(ctx, kind, cursor, budget)
		if err != nil {
			if errors.Is(err, source.ErrRateLimited) {
				if f.pages > 0 {
					f.stop("Reddit rate-limited the request before all activity was fetched")
					return n, false, nil
				}
				if retries >= f.coord.maxRetries {
					return n, false, errors.Wrapf(err, "still rate limited after %d retries", retries)
				}
				retries++
				delay := source.RetryAfter(err, defaultRetryDelay)
				f.log.Info("rate limited, backing off",
					zap.String("stream", string(kind)),
					zap.Duration("delay", delay),
					zap.Int("retry", retries))
				if serr := sleepFunc(ctx, delay); serr != nil {
					return n, false, errors.Wrap(serr, "waiting out rate limit")
				}
				continue
			}
			if ctx.Err() != nil && f.pages > 0 {
				f.stop("the time limit was reached before all activity was fetched")
				return n, false, nil
			}
			return n, false, err
		}

		f.pages++
		items, next := page.Items, page.Next
		caughtUp := false
		if !track {
			for i, item := range items {
				if _, ok := f.known[item.Fullname()]; ok {
					items, caughtUp = items[:i], true
					break
				}
			}
		}
		if len(items) > budget {
			items = items[:budget]
			next = items[len(items)-1].Fullname()
		}
		f.items = append(f.items, items...)
		n += len(items)
		budget -= len(items)
		cursor = next
		if track {
			f.setCursor(kind, cursor)
		}

		if caughtUp {
			return n, false, nil
		}
		if next == "" || len(page.Items) == 0 {
			return n, true, nil
		}
	}
	return n, false, nil
}

func (f *fetch) call(ctx context.Context, kind model.ItemKind, cursor string, limit int) (*source.Page, error) {
	f.calls++
	if kind == model.KindPost {
		return f.coord.client.FetchPosts(ctx, f.user, cursor, limit)
	}
	return f.coord.client.FetchComments(ctx, f.user, cursor, limit)
}

func (f *fetch) stop(reason string) {
	f.stopped = reason
	f.log.Warn("stopping fetch early, keeping partial activity",
		zap.String("reason", reason),
		zap.Int("items", len(f.items)))
}

func (f *fetch) cursorFor(kind model.ItemKind) string {
	if kind == model.KindPost {
		return f.cursor.Posts
	}
	return f.cursor.Comments
}

func (f *fetch) setCursor(kind model.ItemKind, cursor string) {
	if kind == model.KindPost {
		f.cursor.Posts = cursor
		return
	}
	f.cursor.Comments = cursor
}
