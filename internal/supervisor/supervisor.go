package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/galois26/ais-ingester/internal/model"
	"github.com/galois26/ais-ingester/internal/source"
)

// Build turns session configs into runnable sessions sharing opts.
func Build(cfgs []model.SessionConfig, opts source.Options) ([]source.Source, error) {
	srcs := make([]source.Source, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := source.NewSession(c, opts)
		if err != nil {
			return nil, fmt.Errorf("session %d (%s): %w", i, c.MessageType, err)
		}
		srcs = append(srcs, s)
	}
	return srcs, nil
}

// Run starts every source concurrently and waits for all of them. Results
// come back in the order of srcs; one failing source never stops the others.
func Run(ctx context.Context, srcs []source.Source, log *slog.Logger) []source.Result {
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()
	log.Info("starting sessions", "count", len(srcs))

	results := make([]source.Result, len(srcs))
	var wg sync.WaitGroup
	for i, src := range srcs {
		i, src := i, src // per-iteration copies (go1.22 loopvar semantics)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = src.Run(ctx)
		}()
	}
	wg.Wait()

	sum := Summarize(results)
	log.Info("all sessions finished",
		"elapsed", time.Since(start).Truncate(time.Millisecond),
		"done", sum.Done, "failed", sum.Failed, "rows", sum.Rows)
	return results
}

// Summary counts session outcomes.
type Summary struct {
	Done     int
	Failed   int
	Rows     int
	ByStatus map[source.Status]int
}

func Summarize(results []source.Result) Summary {
	s := Summary{ByStatus: make(map[source.Status]int)}
	for _, r := range results {
		s.ByStatus[r.Status]++
		s.Rows += r.Rows
		if r.Flushed() {
			s.Done++
		} else {
			s.Failed++
		}
	}
	return s
}

// AllRejected is true when every session failed on its API key.
func (s Summary) AllRejected() bool {
	n := s.ByStatus[source.StatusAuthError]
	return n > 0 && n == s.Done+s.Failed
}
