// Package refresh owns the dashboard state and decides when it is fetched.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"hatewatch-dashboard/internal/metrics"
	"hatewatch-dashboard/internal/model"
	"hatewatch-dashboard/internal/store"
)

// Source is the subset of the API client the coordinator needs.
type Source interface {
	Countries(ctx context.Context) ([]string, error)
	Stats(ctx context.Context, country string) (model.Stats, error)
	Alerts(ctx context.Context, activeOnly bool, country string) ([]model.Alert, error)
	Timeline(ctx context.Context, channelID, country string, days int) (model.Timeline, error)
}

// Notifier receives every new snapshot. Publish must not block.
type Notifier interface {
	Publish(Snapshot)
}

type Options struct {
	Interval     time.Duration
	TimelineDays int
	Seen         *store.Seen      // optional; enables new-alert badges
	Metrics      *metrics.Metrics // optional
	Notifier     Notifier         // optional
}

// Coordinator fetches stats, active alerts and the timeline together and keeps
// the latest successful triple. Cycles are numbered; a cycle whose number is
// no longer the newest when it settles is discarded.
type Coordinator struct {
	src  Source
	opts Options
	now  func() time.Time

	mu        sync.Mutex
	state     Snapshot
	gen       uint64
	baseCtx   context.Context
	cancelCur context.CancelFunc
	stopped   bool

	// filter of the last successful cycle; badges are only computed against it
	loaded        bool
	loadedCountry string

	inflight sync.WaitGroup
}

func New(src Source, opts Options) *Coordinator {
	if opts.Interval <= 0 {
		opts.Interval = 60 * time.Second
	}
	if opts.TimelineDays <= 0 {
		opts.TimelineDays = 7
	}
	return &Coordinator{
		src:     src,
		opts:    opts,
		now:     time.Now,
		baseCtx: context.Background(),
		state: Snapshot{
			Loading:      true,
			TimelineDays: opts.TimelineDays,
			Interval:     opts.Interval,
		},
	}
}

// Run loads the country list once, starts the first cycle and then one cycle
// per interval until ctx is cancelled. On return the ticker is stopped and
// every cycle started so far has settled.
func (c *Coordinator) Run(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.loadCountries(ctx)
	}()

	c.start(false)

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Infof("refresh: stopping: %v", ctx.Err())
			c.mu.Lock()
			c.stopped = true
			c.mu.Unlock()
			c.inflight.Wait()
			return
		case <-ticker.C:
			c.start(false)
		}
	}
}

// Refresh starts a user-initiated cycle and returns its generation. After Run
// has returned it starts nothing and returns the last generation.
func (c *Coordinator) Refresh() uint64 {
	return c.start(true)
}

// SetCountry changes the filter ("" means all countries) and starts a cycle
// for it. Setting the current value again does nothing.
func (c *Coordinator) SetCountry(country string) (uint64, bool) {
	c.mu.Lock()
	if country == c.state.Country {
		gen := c.gen
		c.mu.Unlock()
		return gen, false
	}
	c.state.Country = country
	c.mu.Unlock()
	log.WithField("country", displayCountry(country)).Info("refresh: country filter changed")
	return c.start(true), true
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every cycle started so far has settled.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

func (c *Coordinator) start(markLoading bool) uint64 {
	c.mu.Lock()
	if c.stopped {
		gen := c.gen
		c.mu.Unlock()
		return gen
	}
	c.gen++
	gen := c.gen
	country := c.state.Country
	if c.cancelCur != nil {
		c.cancelCur()
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancelCur = cancel
	c.state.Generation = gen
	if markLoading {
		c.state.Loading = true
	}
	snap := c.state
	c.inflight.Add(1)
	c.mu.Unlock()

	if markLoading {
		c.publish(snap)
	}
	go func() {
		defer c.inflight.Done()
		defer cancel()
		c.cycle(ctx, gen, country)
	}()
	return gen
}

func (c *Coordinator) cycle(ctx context.Context, gen uint64, country string) {
	start := c.now()
	logger := log.WithFields(log.Fields{"generation": gen, "country": displayCountry(country)})

	var (
		stats    model.Stats
		alerts   []model.Alert
		timeline model.Timeline
		g        errgroup.Group
	)
	g.Go(func() error {
		s, err := c.src.Stats(ctx, country)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		stats = s
		return nil
	})
	g.Go(func() error {
		a, err := c.src.Alerts(ctx, true, country)
		if err != nil {
			return fmt.Errorf("alerts: %w", err)
		}
		alerts = a
		return nil
	})
	g.Go(func() error {
		tl, err := c.src.Timeline(ctx, "", country, c.opts.TimelineDays)
		if err != nil {
			return fmt.Errorf("timeline: %w", err)
		}
		timeline = tl
		return nil
	})
	err := g.Wait()
	dur := c.now().Sub(start)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.opts.Metrics.ObserveCycle("stale", dur)
		logger.Debug("refresh: discarding superseded cycle")
		return
	}
	c.state.Loading = false
	if err != nil {
		c.state.Err = FetchErrorMessage
		snap := c.state
		c.mu.Unlock()
		c.opts.Metrics.ObserveCycle("error", dur)
		logger.WithError(err).Error("refresh: cycle failed")
		c.publish(snap)
		return
	}

	fresh := c.markNew(alerts, country)
	c.state.Err = ""
	c.state.Stats = &stats
	c.state.Alerts = alerts
	c.state.Timeline = timeline.Timeline
	c.state.LastUpdated = c.now()
	snap := c.state
	c.mu.Unlock()

	c.opts.Metrics.ObserveCycle("ok", dur)
	c.opts.Metrics.MarkSuccess(snap.LastUpdated)
	c.opts.Metrics.AddNewAlerts(len(fresh))
	logger.WithFields(log.Fields{
		"alerts":   len(alerts),
		"points":   len(snap.Timeline),
		"new":      len(fresh),
		"duration": dur.Truncate(time.Millisecond).String(),
	}).Info("refresh: cycle complete")
	c.publish(snap)
}

// markNew records alert ids and sets the NewAlerts badge map. Nothing is badged
// on the first successful load, or on the first one after the country filter
// changed. Must be called with c.mu held.
func (c *Coordinator) markNew(alerts []model.Alert, country string) map[int64]bool {
	first := !c.loaded || c.loadedCountry != country
	c.loaded, c.loadedCountry = true, country
	if c.opts.Seen == nil {
		c.state.NewAlerts = nil
		return nil
	}
	fresh := make(map[int64]bool)
	for _, a := range alerts {
		if c.opts.Seen.Observe(a.ID) && !first {
			fresh[a.ID] = true
		}
	}
	c.state.NewAlerts = fresh
	return fresh
}

func (c *Coordinator) loadCountries(ctx context.Context) {
	countries, err := c.src.Countries(ctx)
	if err != nil {
		log.WithError(err).Warn("refresh: fetching countries")
		return
	}
	c.mu.Lock()
	c.state.Countries = countries
	snap := c.state
	c.mu.Unlock()
	log.Infof("refresh: loaded %d countries", len(countries))
	c.publish(snap)
}

func (c *Coordinator) publish(s Snapshot) {
	if c.opts.Notifier != nil {
		c.opts.Notifier.Publish(s)
	}
}

func displayCountry(c string) string {
	if c == "" {
		return "all"
	}
	return c
}
