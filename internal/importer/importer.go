// Package importer persists the new records of an import batch, tolerating
// per-record failures and reporting a success/skip/error summary.
package importer

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"evaladmin/internal/apperr"
)

// DefaultConcurrency bounds the number of in-flight persistence calls.
const DefaultConcurrency = 8

// Options tune a Run. Skipped is the duplicate count from classification and
// is only echoed in the summary.
type Options[T any] struct {
	Concurrency int
	Skipped     int
	Label       func(T) string
	OnProgress  func(current, total int)
}

// Summary is the outcome of one batch.
type Summary struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// Failed is the number of records whose persist call returned an error.
func (s Summary) Failed() int { return len(s.Errors) }

// Message renders the toast text, e.g. "3 professors added, 2 skipped (duplicates)".
func (s Summary) Message(singular, plural string) string {
	noun := plural
	if s.Success == 1 {
		noun = singular
	}
	msg := fmt.Sprintf("%d %s added, %d skipped (duplicates)", s.Success, noun, s.Skipped)
	if n := s.Failed(); n > 0 {
		msg += fmt.Sprintf(", %d failed", n)
	}
	return msg
}

// Run calls persist for every record with bounded concurrency and waits for
// all of them to settle. A failing record never stops the batch. Cancelling
// ctx after Run starts does not interrupt in-flight or pending writes.
func Run[T any](ctx context.Context, records []T, persist func(context.Context, T) error, opts Options[T]) Summary {
	sum := Summary{Total: len(records), Skipped: opts.Skipped, Errors: []string{}}
	if len(records) == 0 {
		return sum
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	ctx = context.WithoutCancel(ctx)

	var (
		mu     sync.Mutex
		errs   = make([]string, len(records))
		failed = make([]bool, len(records))
		g      errgroup.Group
	)
	g.SetLimit(limit)

	for i, rec := range records {
		g.Go(func() error {
			err := persist(ctx, rec)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[i] = true
				errs[i] = describe(rec, err, opts.Label, i)
				return nil
			}
			sum.Success++
			if opts.OnProgress != nil {
				opts.OnProgress(sum.Success, sum.Total)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range records {
		if failed[i] {
			sum.Errors = append(sum.Errors, errs[i])
		}
	}
	return sum
}

func describe[T any](rec T, err error, label func(T) string, i int) string {
	name := fmt.Sprintf("record %d", i+1)
	if label != nil {
		if l := label(rec); l != "" {
			name = l
		}
	}
	return name + ": " + apperr.Sanitize(err)
}

// CrossProduct builds one payload per (p, q) pair, p-major. The question
// import uses it to create one question row per professor, so its total is
// len(ps) * len(qs).
func CrossProduct[P, Q, R any](ps []P, qs []Q, build func(P, Q) R) []R {
	out := make([]R, 0, len(ps)*len(qs))
	for _, p := range ps {
		for _, q := range qs {
			out = append(out, build(p, q))
		}
	}
	return out
}
