// Package globalconfig exposes the externally managed settings the lifecycle
// engine reads. Values may change between calls; callers read a fresh
// snapshot per operation.
package globalconfig

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type GlobalConfig struct {
	MaintenanceMode  bool     `json:"maintenanceMode"`
	UnfreezeEnabled  bool     `json:"unfreezeEnabled"`
	TermsOfService   string   `json:"termsOfService"`
	ManagedRegions   []string `json:"managedRegions"`
	MaxLeasesPerUser int      `json:"maxLeasesPerUser"`
	RequireMaxSpend  bool     `json:"requireMaxSpend"`
	// Zero means no cap.
	MaxBudget decimal.Decimal `json:"maxBudget"`
	// Zero means no cap.
	MaxDurationHours                     int `json:"maxDurationHours"`
	CleanupNumSuccessfulAttemptsToFinish int `json:"cleanupNumSuccessfulAttemptsToFinish"`
	CleanupNumFailedAttemptsToAbort      int `json:"cleanupNumFailedAttemptsToAbort"`
}

type Provider interface {
	Get(ctx context.Context) (GlobalConfig, error)
}

// StaticProvider serves a fixed snapshot that can be swapped at runtime.
type StaticProvider struct {
	mu  sync.RWMutex
	cfg GlobalConfig
}

var _ Provider = (*StaticProvider)(nil)

func NewStaticProvider(cfg GlobalConfig) *StaticProvider {
	return &StaticProvider{cfg: cfg}
}

func (p *StaticProvider) Get(context.Context) (GlobalConfig, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.cfg, nil
}

func (p *StaticProvider) Set(cfg GlobalConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cfg = cfg
}

func (p *StaticProvider) Update(fn func(*GlobalConfig)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fn(&p.cfg)
}
