package jobs

import (
	"context"
	"log"
	"time"

	"github.com/Nishi-Taiga/F-education-sub002/internal/config"
)

type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type StatusSetter interface {
	SetServing(serving bool)
}

func StartHealthProbeJob(ctx context.Context, cfg config.Config, status StatusSetter, checks ...Check) {
	if status == nil {
		log.Printf("health probe job disabled: no status target")
		return
	}
	interval := cfg.HealthProbeInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	timeout := interval / 2

	prober := &healthProber{status: status, checks: checks, timeout: timeout}
	prober.probe(ctx)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				prober.probe(ctx)
			}
		}
	}()
}

type healthProber struct {
	status  StatusSetter
	checks  []Check
	timeout time.Duration
	last    *bool
}

func (p *healthProber) probe(ctx context.Context) bool {
	serving := true
	for _, check := range p.checks {
		tickCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := check.Ping(tickCtx)
		cancel()
		if err != nil {
			serving = false
			log.Printf("health probe %s failed: %v", check.Name, err)
		}
	}
	if p.last == nil || *p.last != serving {
		log.Printf("health status changed: serving=%v", serving)
	}
	p.last = &serving
	p.status.SetServing(serving)
	return serving
}
