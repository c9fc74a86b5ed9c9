package quota

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// secondsPerDay converts a daily budget into a sustained per-second rate.
const secondsPerDay = 24 * 60 * 60

// GuardConfig defines the brake for one service.
type GuardConfig struct {
	// Service is the service identifier (must match ServiceConfig.Name).
	Service string

	// DailyLimit is the budget to spread across the day. Zero disables the
	// brake for this service.
	DailyLimit int64

	// Burst is the token-bucket burst size. Defaults to 1% of the daily
	// limit (minimum 1) when zero.
	Burst int
}

// guardState tracks runtime state for a single service.
type guardState struct {
	config  GuardConfig
	limiter *rate.Limiter
	spent   int64
}

// Guard is the enforcement side of quota governance: producers ask it for
// permission before spending provider budget. It is safe for concurrent
// use.
type Guard struct {
	mu       sync.Mutex
	services map[string]*guardState
}

// NewGuard creates a Guard with the given service configurations. Services
// not listed here are unrestricted.
func NewGuard(configs ...GuardConfig) *Guard {
	g := &Guard{services: make(map[string]*guardState, len(configs))}
	for _, cfg := range configs {
		g.services[cfg.Service] = newGuardState(cfg)
	}

	return g
}

// GuardFromServices derives brake configurations from monitor service
// configs, so both sides of quota governance share one budget definition.
func GuardFromServices(services []ServiceConfig) *Guard {
	configs := make([]GuardConfig, 0, len(services))
	for _, svc := range services {
		configs = append(configs, GuardConfig{Service: svc.Name, DailyLimit: svc.DailyLimit})
	}

	return NewGuard(configs...)
}

func newGuardState(cfg GuardConfig) *guardState {
	gs := &guardState{config: cfg}
	if cfg.DailyLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.DailyLimit / 100)
			if burst < 1 {
				burst = 1
			}
		}
		gs.limiter = rate.NewLimiter(rate.Limit(float64(cfg.DailyLimit)/secondsPerDay), burst)
	}

	return gs
}

// Allow reports whether the service may spend the given number of units
// now. Allowed spends are tallied; denied spends are not.
func (g *Guard) Allow(service string, units int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	gs := g.services[service]
	if gs == nil || gs.limiter == nil {
		return true
	}
	if !gs.limiter.AllowN(time.Now(), units) {
		return false
	}

	gs.spent += int64(units)

	return true
}

// SetServiceConfig dynamically updates (or creates) a service brake.
func (g *Guard) SetServiceConfig(cfg GuardConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()

	existing := g.services[cfg.Service]
	gs := newGuardState(cfg)

	// Preserve the running tally if reconfiguring.
	if existing != nil {
		gs.spent = existing.spent
	}
	g.services[cfg.Service] = gs
}

// Spent returns the units allowed through for a service since startup or
// the last reconfiguration.
func (g *Guard) Spent(service string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gs := g.services[service]; gs != nil {
		return gs.spent
	}

	return 0
}

// Limit returns the configured daily budget for a service. Zero means the
// service is unrestricted.
func (g *Guard) Limit(service string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gs := g.services[service]; gs != nil {
		return gs.config.DailyLimit
	}

	return 0
}
