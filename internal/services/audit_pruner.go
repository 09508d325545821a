package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskforge/backend/internal/infrastructure/audit"
)

// PrunerConfig tunes the background journal retention sweep.
type PrunerConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// AuditPruner periodically drops journal entries older than the retention
// window so the local BoltDB file stays bounded.
type AuditPruner struct {
	journal *audit.Journal
	cfg     PrunerConfig
	logger  *zap.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewAuditPruner(journal *audit.Journal, cfg PrunerConfig, logger *zap.Logger) *AuditPruner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 72 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditPruner{
		journal: journal,
		cfg:     cfg,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (p *AuditPruner) Start() {
	go p.loop()
}

// Stop signals the loop and waits for it to exit or ctx to expire.
func (p *AuditPruner) Stop(ctx context.Context) {
	close(p.stopCh)
	select {
	case <-p.doneCh:
	case <-ctx.Done():
	}
}

func (p *AuditPruner) loop() {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweep()
		case <-p.stopCh:
			return
		}
	}
}

func (p *AuditPruner) sweep() {
	cutoff := time.Now().Add(-p.cfg.Retention)
	removed, err := p.journal.Prune(cutoff)
	if err != nil {
		p.logger.Warn("audit prune failed", zap.Error(err))
		return
	}
	if removed > 0 {
		p.logger.Info("audit journal pruned", zap.Int("removed", removed))
	}
}
