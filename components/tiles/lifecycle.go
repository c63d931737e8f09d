package tiles

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"
)

// TileState tracks where a tile sits in its load cycle.
type TileState int

const (
	StateIdle TileState = iota
	StateLoading
	StateRendered
	StateErrored
)

func (s TileState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRendered:
		return "rendered"
	case StateErrored:
		return "errored"
	default:
		return "idle"
	}
}

// TileKey uniquely identifies a mounted tile. Ephemeral default tiles share
// ID 0, so the type participates in identity.
type TileKey struct {
	Type string
	ID   int64
}

// Key returns the controller identity for a tile.
func (t Tile) Key() TileKey { return TileKey{Type: t.Type, ID: t.ID} }

// DefaultSuggestionsDebounce is the settle delay between the last tile
// completing and the suggestions fetch, so suggestions always see freshly
// loaded caches.
const DefaultSuggestionsDebounce = 1500 * time.Millisecond

// ControllerOptions configures a dashboard Controller instance.
type ControllerOptions struct {
	Service *Service
	Viewer  ViewerContext
	Tiles   []Tile
	// Configs carries per-tile configuration keyed by tile identity.
	Configs map[TileKey]map[string]any
	// OnSuggestions fires once all trackable tiles have completed (after
	// the debounce), and again on each suggestions refresh interval.
	OnSuggestions func(ctx context.Context)
	// OnRedirect receives the login URL when any fetch reports an expired
	// session. Invoked at most once per controller lifetime.
	OnRedirect func(loginURL string)
	// OnStateChange observes tile transitions; used by transports and tests.
	OnStateChange func(key TileKey, state TileState)
	// SuggestionsDebounce overrides DefaultSuggestionsDebounce.
	SuggestionsDebounce time.Duration
	// SuggestionsInterval refires OnSuggestions periodically after the
	// first gate-driven fetch. Zero disables periodic refresh.
	SuggestionsInterval time.Duration
	// LoginPath is the route the redirect points at, default "/login".
	LoginPath string
}

type tileEntry struct {
	tile       Tile
	state      TileState
	generation uint64
	payload    TilePayload
	err        error
	loadedOnce bool
	ticker     *time.Ticker
	stopTick   chan struct{}
}

// Controller owns all per-tile lifecycle state for one mounted dashboard:
// fetch states, auto-refresh timers, request generations, the session
// expiry latch, and the all-tiles-loaded suggestions gate. A Controller is
// single-use: Mount once, Unmount once.
type Controller struct {
	service       *Service
	viewer        ViewerContext
	cfg           ControllerOptions
	mu            sync.Mutex
	entries       map[TileKey]*tileEntry
	order         []TileKey
	trackable     int
	loadedCount   int
	suggestTimer  *time.Timer
	suggestedOnce bool
	paused        bool
	mounted       bool
	redirectOnce  sync.Once
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewController builds a controller for the given tile set. Nothing runs
// until Mount is called.
func NewController(cfg ControllerOptions) *Controller {
	if cfg.SuggestionsDebounce <= 0 {
		cfg.SuggestionsDebounce = DefaultSuggestionsDebounce
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	c := &Controller{
		service: cfg.Service,
		viewer:  cfg.Viewer,
		cfg:     cfg,
		entries: map[TileKey]*tileEntry{},
	}
	for _, tile := range cfg.Tiles {
		key := tile.Key()
		c.entries[key] = &tileEntry{tile: tile, state: StateIdle}
		c.order = append(c.order, key)
		if c.trackableTile(tile) {
			c.trackable++
		}
	}
	return c
}

func (c *Controller) trackableTile(tile Tile) bool {
	if def, ok := c.service.Registry().Definition(tile.Type); ok {
		return !def.ManualOnly
	}
	return true
}

// Mount starts initial fetches and auto-refresh timers. With zero trackable
// tiles the suggestions fetch fires immediately.
func (c *Controller) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	keys := append([]TileKey(nil), c.order...)
	trackable := c.trackable
	c.mu.Unlock()

	if trackable == 0 {
		c.fireSuggestions()
	}
	for _, key := range keys {
		c.Refresh(key)
		c.startTicker(key)
	}
}

// Unmount stops every timer and in-flight bookkeeping. Late fetch results
// are discarded by the generation check.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	cancel := c.cancel
	for _, entry := range c.entries {
		c.stopTickerLocked(entry)
		entry.generation++ // orphan any in-flight response
	}
	if c.suggestTimer != nil {
		c.suggestTimer.Stop()
		c.suggestTimer = nil
	}
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// Refresh moves a tile back to Loading and dispatches a fetch. Safe to call
// from any trigger: initial load, manual refresh, ticker, or post-action
// reload. Concurrent refreshes race; only the response matching the latest
// generation wins the render.
func (c *Controller) Refresh(key TileKey) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok || !c.mounted {
		c.mu.Unlock()
		return
	}
	entry.generation++
	gen := entry.generation
	entry.state = StateLoading
	tile := entry.tile
	config := c.cfg.Configs[key]
	ctx := c.ctx
	c.mu.Unlock()

	c.notifyState(key, StateLoading)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		payload, err := c.service.FetchTile(ctx, c.viewer, tile, config)
		c.complete(key, gen, payload, err)
	}()
}

func (c *Controller) complete(key TileKey, gen uint64, payload TilePayload, err error) {
	if errors.Is(err, ErrUnauthorized) {
		c.redirect()
		return
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok || entry.generation != gen {
		// A newer request superseded this response; drop it.
		c.mu.Unlock()
		return
	}
	state := StateRendered
	if err != nil {
		state = StateErrored
		entry.err = err
	} else {
		entry.err = nil
		entry.payload = payload
	}
	entry.state = state

	gateReady := false
	if !entry.loadedOnce && c.trackableTile(entry.tile) {
		entry.loadedOnce = true
		c.loadedCount++
		if c.loadedCount == c.trackable {
			gateReady = true
		}
	}
	c.mu.Unlock()

	c.notifyState(key, state)
	if gateReady {
		c.scheduleSuggestions()
	}
}

func (c *Controller) redirect() {
	c.redirectOnce.Do(func() {
		if c.cfg.OnRedirect == nil {
			return
		}
		target := c.cfg.LoginPath
		if c.viewer.Path != "" {
			target += "?redirect=" + url.QueryEscape(c.viewer.Path)
		}
		c.cfg.OnRedirect(target)
	})
}

func (c *Controller) scheduleSuggestions() {
	c.mu.Lock()
	if c.suggestedOnce || c.paused {
		c.mu.Unlock()
		return
	}
	if c.suggestTimer != nil {
		c.suggestTimer.Stop()
	}
	c.suggestTimer = time.AfterFunc(c.cfg.SuggestionsDebounce, c.fireSuggestions)
	c.mu.Unlock()
}

func (c *Controller) fireSuggestions() {
	c.mu.Lock()
	if c.suggestedOnce {
		c.mu.Unlock()
		return
	}
	c.suggestedOnce = true
	ctx := c.ctx
	c.mu.Unlock()
	if c.cfg.OnSuggestions != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		c.cfg.OnSuggestions(ctx)
	}
	c.schedulePeriodicSuggestions()
}

func (c *Controller) schedulePeriodicSuggestions() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.SuggestionsInterval <= 0 || !c.mounted || c.paused {
		return
	}
	if c.suggestTimer != nil {
		c.suggestTimer.Stop()
	}
	c.suggestTimer = time.AfterFunc(c.cfg.SuggestionsInterval, func() {
		c.mu.Lock()
		ctx := c.ctx
		active := c.mounted && !c.paused
		c.mu.Unlock()
		if !active {
			return
		}
		if c.cfg.OnSuggestions != nil {
			c.cfg.OnSuggestions(ctx)
		}
		c.schedulePeriodicSuggestions()
	})
}

// Pause suspends auto-refresh timers and the pending suggestions timer for
// the duration of a reorder/resize session.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.paused = true
	for _, entry := range c.entries {
		c.stopTickerLocked(entry)
	}
	if c.suggestTimer != nil {
		c.suggestTimer.Stop()
		c.suggestTimer = nil
	}
}

// Resume restarts auto-refresh after a reorder/resize session ends.
func (c *Controller) Resume() {
	c.mu.Lock()
	if !c.paused {
		c.mu.Unlock()
		return
	}
	c.paused = false
	keys := append([]TileKey(nil), c.order...)
	resumeSuggestions := c.suggestedOnce
	c.mu.Unlock()
	for _, key := range keys {
		c.startTicker(key)
	}
	if resumeSuggestions {
		c.schedulePeriodicSuggestions()
	}
}

func (c *Controller) startTicker(key TileKey) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok || !c.mounted || c.paused || entry.ticker != nil {
		c.mu.Unlock()
		return
	}
	if !c.trackableTile(entry.tile) || entry.tile.RefreshInterval <= 0 {
		c.mu.Unlock()
		return
	}
	ticker := time.NewTicker(entry.tile.RefreshInterval)
	stop := make(chan struct{})
	entry.ticker = ticker
	entry.stopTick = stop
	ctx := c.ctx
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ticker.C:
				c.Refresh(key)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *Controller) stopTickerLocked(entry *tileEntry) {
	if entry.ticker != nil {
		entry.ticker.Stop()
		entry.ticker = nil
	}
	if entry.stopTick != nil {
		close(entry.stopTick)
		entry.stopTick = nil
	}
}

func (c *Controller) notifyState(key TileKey, state TileState) {
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(key, state)
	}
}

// State reports a tile's current lifecycle state.
func (c *Controller) State(key TileKey) TileState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		return entry.state
	}
	return StateIdle
}

// Payload returns the last rendered payload for a tile, if any.
func (c *Controller) Payload(key TileKey) (TilePayload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || entry.payload == nil {
		return nil, false
	}
	return entry.payload, true
}

// Snapshot returns the latest cached payload per tile type, the input the
// assistant summarizes. Tiles that never completed are omitted.
type Snapshot map[string]TilePayload

// Snapshot collects the current payload cache.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(Snapshot, len(c.entries))
	for key, entry := range c.entries {
		if entry.payload != nil {
			out[key.Type] = entry.payload
		}
	}
	return out
}
