package match

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/tsawler/collate/index"
	"github.com/tsawler/collate/template"
)

// Window bounds a boundary search: ordinals in [Start, End). The
// resolver never considers elements before Start, which is how the
// aligner's monotonic cursor prevents backward jumps.
type Window struct {
	Start int
	End   int
}

// Empty reports whether the window contains no ordinals.
func (w Window) Empty() bool {
	return w.Start >= w.End
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Cache shares resolution results across workers; nil disables
	// caching.
	Cache *Cache

	// ParallelThreshold is the window size above which candidate
	// scoring fans out across CPUs. Zero means DefaultParallelThreshold.
	ParallelThreshold int

	// Logger receives debug records for each resolution; nil disables
	// logging.
	Logger *slog.Logger
}

// DefaultParallelThreshold is the window size above which scoring is
// parallelized.
const DefaultParallelThreshold = 256

// Resolver finds the best boundary for a pattern inside a window,
// applying the fallback ladder when the declared strategy fails. It is
// safe for concurrent use.
type Resolver struct {
	idx      *index.Index
	scorer   *Scorer
	cache    *Cache
	parallel int
	log      *slog.Logger
}

// NewResolver creates a resolver over idx using scorer.
func NewResolver(idx *index.Index, scorer *Scorer, cfg ResolverConfig) *Resolver {
	parallel := cfg.ParallelThreshold
	if parallel <= 0 {
		parallel = DefaultParallelThreshold
	}
	return &Resolver{
		idx:      idx,
		scorer:   scorer,
		cache:    cfg.Cache,
		parallel: parallel,
		log:      cfg.Logger,
	}
}

// strategy is one rung of the fallback ladder.
type strategy struct {
	name      string
	threshold float64
	algorithm template.Algorithm
}

// ladder returns the ordered fallback strategies for a pattern: the
// declared threshold, two progressively relaxed thresholds, then an
// alternate matching algorithm at the declared threshold. The ladder is
// composed by first-success short-circuit.
func ladder(p *template.Pattern) []strategy {
	rungs := []strategy{{
		name:      fmt.Sprintf("%s@%.2f", p.Algorithm, p.Threshold),
		threshold: p.Threshold,
		algorithm: p.Algorithm,
	}}

	if p.Algorithm != template.AlgoExact {
		for _, relax := range []float64{0.85, 0.70} {
			t := p.Threshold * relax
			rungs = append(rungs, strategy{
				name:      fmt.Sprintf("%s@%.2f", p.Algorithm, t),
				threshold: t,
				algorithm: p.Algorithm,
			})
		}
	}

	alternate := template.AlgoPhonetic
	if p.Algorithm == template.AlgoPhonetic {
		alternate = template.AlgoLevenshtein
	}
	rungs = append(rungs, strategy{
		name:      fmt.Sprintf("%s@%.2f", alternate, p.Threshold),
		threshold: p.Threshold,
		algorithm: alternate,
	})
	return rungs
}

// Resolve finds the best boundary for p inside win. path is the
// ancestor label chain used in error reporting. On success the winning
// candidate is returned; failure is a *NoMatchError naming every
// strategy attempted, or an *AmbiguousMatchError on an irreconcilable
// exact tie.
func (r *Resolver) Resolve(ctx context.Context, p *template.Pattern, win Window, path []string) (Candidate, error) {
	key := p.Key()
	if r.cache != nil {
		if cand, found, ok := r.cache.get(key, win); ok {
			if found {
				return cand, nil
			}
			return Candidate{}, &NoMatchError{Pattern: p.Text, Strategies: strategyNames(p), Path: path}
		}
	}

	var attempted []string
	for _, rung := range ladder(p) {
		attempted = append(attempted, rung.name)
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}

		probe := template.Pattern{Text: p.Text, Threshold: rung.threshold, Algorithm: rung.algorithm}
		cand, tied, found := r.bestInWindow(&probe, win)
		if !found {
			continue
		}
		if rung.algorithm == template.AlgoExact && len(tied) > 0 {
			return Candidate{}, &AmbiguousMatchError{
				Pattern: p.Text,
				Tied:    append([]int{cand.Ordinal}, tied...),
				Path:    path,
			}
		}
		if r.log != nil {
			r.log.Debug("boundary resolved",
				"pattern", p.Text,
				"strategy", rung.name,
				"ordinal", cand.Ordinal,
				"score", cand.Score,
			)
		}
		if r.cache != nil {
			r.cache.put(key, win, cand, true)
		}
		return cand, nil
	}

	if r.cache != nil {
		r.cache.put(key, win, Candidate{}, false)
	}
	return Candidate{}, &NoMatchError{Pattern: p.Text, Strategies: attempted, Path: path}
}

func strategyNames(p *template.Pattern) []string {
	rungs := ladder(p)
	names := make([]string, len(rungs))
	for i, rung := range rungs {
		names[i] = rung.name
	}
	return names
}

// bestInWindow scores every element in the window against p and picks
// the acceptable candidate with the highest composite, ties breaking by
// earliest document order. tied reports later ordinals whose composite
// exactly equals the winner's.
func (r *Resolver) bestInWindow(p *template.Pattern, win Window) (best Candidate, tied []int, found bool) {
	if win.Empty() {
		return Candidate{}, nil, false
	}
	if win.End > r.idx.Len() {
		win.End = r.idx.Len()
	}
	if win.Start < 0 {
		win.Start = 0
	}

	size := win.End - win.Start
	candidates := make([]Candidate, size)
	accepted := make([]bool, size)

	score := func(from, to int) {
		for i := from; i < to; i++ {
			cand, ok := r.scorer.Score(p, win.Start+i)
			candidates[i] = cand
			accepted[i] = ok
		}
	}

	if size >= r.parallel {
		// Candidate scoring is embarrassingly parallel: elements and
		// index queries are read-only, and each worker writes a
		// disjoint slice segment.
		workers := runtime.GOMAXPROCS(0)
		if workers > size {
			workers = size
		}
		var wg sync.WaitGroup
		step := (size + workers - 1) / workers
		for w := 0; w < workers; w++ {
			from := w * step
			to := from + step
			if to > size {
				to = size
			}
			if from >= to {
				break
			}
			wg.Add(1)
			go func(from, to int) {
				defer wg.Done()
				score(from, to)
			}(from, to)
		}
		wg.Wait()
	} else {
		score(0, size)
	}

	// Sequential reduce keeps selection deterministic.
	for i := 0; i < size; i++ {
		if !accepted[i] {
			continue
		}
		c := candidates[i]
		switch {
		case !found:
			best = c
			found = true
		case c.Score > best.Score:
			best = c
			tied = nil
		case c.Score == best.Score:
			tied = append(tied, c.Ordinal)
		}
	}
	return best, tied, found
}
