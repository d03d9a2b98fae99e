package discovery

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"discovery/internal/logger"
	"discovery/internal/models"
)

// Session holds the state of one user: the chosen location, the current
// places and the walking filter. Every Discover call starts a new
// generation; results and back-fills of older generations are discarded.
type Session struct {
	pipeline *Pipeline
	enricher *Enricher
	log      *zap.Logger

	mu         sync.Mutex
	location   *models.Location
	category   string
	strategy   string
	places     []*models.Place
	threshold  float64
	generation uint64
	cancel     context.CancelFunc
	backfills  sync.WaitGroup
}

// NewSession returns a session. enricher may be nil to skip back-fills.
func NewSession(pipeline *Pipeline, enricher *Enricher, log *zap.Logger) *Session {
	return &Session{pipeline: pipeline, enricher: enricher, log: logger.OrNop(log)}
}

// SetLocation switches the origin, cancelling any run in flight.
func (s *Session) SetLocation(loc models.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersede()
	s.location = &loc
	s.places = nil
	s.category = ""
	s.strategy = ""
}

func (s *Session) Location() (models.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return models.Location{}, false
	}
	return *s.location, true
}

func (s *Session) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

// Strategy names what produced the current places: a strategy or "cache".
func (s *Session) Strategy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

// WalkingThreshold returns the current filter in minutes, zero when off.
func (s *Session) WalkingThreshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

// supersede bumps the generation and cancels the previous run. Callers hold
// s.mu.
func (s *Session) supersede() uint64 {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.generation
}

// Discover finds places of category around the session location. It returns
// models.ErrStale when a newer call or a location change overtook it and
// models.ErrNoPlaces when nothing is left to display.
func (s *Session) Discover(ctx context.Context, category string) ([]*models.Place, error) {
	s.mu.Lock()
	if s.location == nil {
		s.mu.Unlock()
		return nil, models.ErrNoLocation
	}
	gen := s.supersede()
	runCtx, cancelRun := context.WithCancel(ctx)
	fillCtx, cancelFill := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = func() {
		cancelRun()
		cancelFill()
	}
	req := Request{Location: *s.location, Category: category}
	s.mu.Unlock()

	result, err := s.pipeline.Run(runCtx, req)
	cancelRun()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		cancelFill()
		return nil, models.ErrStale
	}
	if err != nil {
		cancelFill()
		return nil, err
	}

	places := result.Places
	ApplyDistance(places, req.Location.Coordinates, s.threshold)
	s.places = places
	s.category = category
	s.strategy = result.Strategy

	if s.enricher != nil && len(places) > 0 {
		work := clonePlaces(places)
		s.backfills.Add(1)
		go s.backfill(fillCtx, cancelFill, gen, req, work)
	} else {
		cancelFill()
	}

	if len(Displayed(places)) == 0 {
		return nil, models.ErrNoPlaces
	}
	return clonePlaces(places), nil
}

// Refilter re-applies the walking filter to the current places without any
// network call.
func (s *Session) Refilter(minutes float64) ([]*models.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = minutes
	if s.location == nil {
		return nil, models.ErrNoLocation
	}
	if len(s.places) == 0 {
		return nil, nil
	}
	ApplyDistance(s.places, s.location.Coordinates, minutes)
	if len(Displayed(s.places)) == 0 {
		return nil, models.ErrNoPlaces
	}
	return clonePlaces(s.places), nil
}

// Places returns a copy of every place of the current run, filtered ones
// included.
func (s *Session) Places() []*models.Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePlaces(s.places)
}

// Wait blocks until every running back-fill returned.
func (s *Session) Wait() {
	s.backfills.Wait()
}

// Close cancels the run in flight and waits for back-fills.
func (s *Session) Close() {
	s.mu.Lock()
	s.supersede()
	s.mu.Unlock()
	s.Wait()
}

func (s *Session) backfill(ctx context.Context, cancel context.CancelFunc, gen uint64, req Request, work []*models.Place) {
	defer s.backfills.Done()
	defer cancel()

	done := s.enricher.Enrich(ctx, req.Category, req.Location.Name, work, func(i int, p *models.Place) {
		s.apply(gen, i, p)
	})

	s.mu.Lock()
	current := gen == s.generation
	var snapshot []*models.Place
	if current {
		snapshot = clonePlaces(s.places)
	}
	s.mu.Unlock()

	if !current {
		s.log.Debug("dropping stale back-fill", zap.Uint64("generation", gen), zap.Int("done", done))
		return
	}
	s.pipeline.Remember(ctx, req, snapshot)
	s.log.Info("back-fill finished", zap.String("category", req.Category), zap.Int("places", done))
}

// apply copies the enriched fields of one place into the session when its
// generation is still current.
func (s *Session) apply(gen uint64, i int, p *models.Place) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || i >= len(s.places) {
		return
	}
	dst := s.places[i]
	dst.Description = p.Description
	dst.DescriptionLoaded = p.DescriptionLoaded
	if p.Tags != nil {
		dst.Tags = p.Tags
	}
	if p.Image != nil {
		img := *p.Image
		dst.Image = &img
	}
}

func clonePlaces(places []*models.Place) []*models.Place {
	if places == nil {
		return nil
	}
	out := make([]*models.Place, len(places))
	for i, p := range places {
		out[i] = p.Clone()
	}
	return out
}
