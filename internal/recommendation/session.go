package recommendation

import (
	"context"
	"sync"

	"partner-insights/internal/common/logger"
	"partner-insights/internal/common/metrics"
	"partner-insights/internal/models"

	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// inflight tracks the running requests for one partner id. Only the request
// holding latest may write its result.
type inflight struct {
	latest  uint64
	cancels map[uint64]context.CancelFunc
}

// Session owns the analysis results of one dashboard session. Re-analysing a
// partner replaces its entry; the most recently started request wins.
type Session struct {
	analyzer Analyzer
	cache    Cache
	backend  string
	logger   logger.Logger

	mu      sync.Mutex
	seq     uint64
	running map[string]*inflight
	writers map[string]*sync.Mutex
}

func NewSession(analyzer Analyzer, cache Cache, backend string, log logger.Logger) *Session {
	if cache == nil {
		cache = NewMemoryCache()
		backend = "memory"
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Session{
		analyzer: analyzer,
		cache:    cache,
		backend:  backend,
		logger:   log.WithFields(map[string]interface{}{"component": "analysis-session", "cacheBackend": backend}),
		running:  make(map[string]*inflight),
		writers:  make(map[string]*sync.Mutex),
	}
}

// Analyze requests a fresh analysis for p and stores it unless a newer
// request for the same id or a Forget overtook it. The result is returned to
// the caller either way.
func (s *Session) Analyze(ctx context.Context, p models.Partner) Result {
	ctx, cancel := context.WithCancel(ctx)
	seq := s.begin(p.ID, cancel)
	defer s.end(p.ID, seq)

	res := s.analyzer.Analyze(ctx, p)

	if res.Kind == KindCancelled || ctx.Err() != nil {
		s.discard(p.ID, seq, "cancelled")
		return res
	}

	// mu is not held across the cache write; the per-id writer lock orders
	// this write against newer writes and Forget for the same id.
	w := s.writer(p.ID)
	w.Lock()
	defer w.Unlock()

	if !s.isLatest(p.ID, seq) {
		s.discard(p.ID, seq, "superseded")
		return res
	}
	if err := s.cache.Put(context.WithoutCancel(ctx), p.ID, res); err != nil {
		s.logger.Warn("Failed to store analysis", map[string]interface{}{"partnerId": p.ID, "error": err})
	}
	return res
}

func (s *Session) isLatest(id string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.running[id]
	return ok && entry.latest == seq
}

// writer returns the lock serialising cache writes for id. Entries are kept
// for the life of the session; there is one per partner id.
func (s *Session) writer(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.writers[id]
	if !ok {
		w = &sync.Mutex{}
		s.writers[id] = w
	}
	return w
}

func (s *Session) begin(id string, cancel context.CancelFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	entry, ok := s.running[id]
	if !ok {
		entry = &inflight{cancels: make(map[uint64]context.CancelFunc)}
		s.running[id] = entry
	}
	entry.latest = s.seq
	entry.cancels[s.seq] = cancel
	return s.seq
}

func (s *Session) end(id string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.running[id]
	if !ok {
		return
	}
	if cancel, ok := entry.cancels[seq]; ok {
		cancel()
		delete(entry.cancels, seq)
	}
	if len(entry.cancels) == 0 {
		delete(s.running, id)
	}
}

func (s *Session) discard(id string, seq uint64, reason string) {
	metrics.AnalysesDiscarded.Inc()
	s.logger.Debug("Discarding analysis", map[string]interface{}{"partnerId": id, "seq": seq, "reason": reason})
}

// Forget cancels every in-flight request for id and drops its stored result.
func (s *Session) Forget(ctx context.Context, id string) error {
	w := s.writer(id)
	w.Lock()
	defer w.Unlock()

	s.mu.Lock()
	if entry, ok := s.running[id]; ok {
		for _, cancel := range entry.cancels {
			cancel()
		}
		delete(s.running, id)
	}
	s.mu.Unlock()

	return s.cache.Delete(ctx, id)
}

// Pending reports whether a request for id is running.
func (s *Session) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[id]
	return ok
}

// Lookup returns the stored result for id. Cache failures are logged and
// reported as a miss.
func (s *Session) Lookup(ctx context.Context, id string) (Result, bool) {
	res, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("Analysis cache lookup failed", map[string]interface{}{"partnerId": id, "error": err})
		metrics.AnalysisCacheLookups.WithLabelValues(s.backend, "error").Inc()
		return Result{}, false
	}
	if ok {
		metrics.AnalysisCacheLookups.WithLabelValues(s.backend, "hit").Inc()
	} else {
		metrics.AnalysisCacheLookups.WithLabelValues(s.backend, "miss").Inc()
	}
	return res, ok
}

func (s *Session) Len(ctx context.Context) (int, error) {
	return s.cache.Len(ctx)
}

// AnalyzeAll analyses partners with at most concurrency requests in flight.
// Results are in input order.
func (s *Session) AnalyzeAll(ctx context.Context, partners []models.Partner, concurrency int) []Result {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result, len(partners))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, p := range partners {
		i, p := i, p
		g.Go(func() error {
			results[i] = s.Analyze(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("Batch analysis finished", map[string]interface{}{
		"partners":    len(partners),
		"concurrency": concurrency,
	})
	return results
}
