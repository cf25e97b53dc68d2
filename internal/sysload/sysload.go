// Package sysload periodically samples host load and memory usage and emits them as metrics
// through the manual emission path.
package sysload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	te "github.com/kpn-digital/timeexecution"
	"github.com/kpn-digital/timeexecution/log"
)

// Sample is a single reading of the host state.
type Sample struct {
	Load1          float64
	Load5          float64
	Load15         float64
	MemUsedPercent float64
}

// Source takes a Sample.
type Source func(ctx context.Context) (Sample, error)

// HostSource reads the load averages and virtual memory usage of the running host.
func HostSource(ctx context.Context) (Sample, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("sysload: error reading load average: err=%w", err)
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("sysload: error reading memory usage: err=%w", err)
	}

	return Sample{
		Load1:          avg.Load1,
		Load5:          avg.Load5,
		Load15:         avg.Load15,
		MemUsedPercent: vm.UsedPercent,
	}, nil
}

// Sampler emits host samples on a fixed interval.
type Sampler struct {
	config   *te.Config
	interval time.Duration
	prefix   string
	source   Source
	logger   log.Logger
	wg       sync.WaitGroup
}

// New creates a sampler emitting through config every interval. Metric names are prefixed with
// prefix, if not empty.
func New(config *te.Config, interval time.Duration, prefix string, logger log.Logger) *Sampler {
	return &Sampler{
		config:   config,
		interval: interval,
		prefix:   prefix,
		source:   HostSource,
		logger:   logger,
	}
}

// Run starts the sampling loop in a background goroutine. The loop stops when ctx is done.
func (s *Sampler) Run(ctx context.Context) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// Immediate first collection
		s.collect(ctx)

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("sysload: sampler shutdown complete")
				return
			case <-ticker.C:
				s.collect(ctx)
			}
		}
	}()
}

// Wait blocks until the sampling goroutine exits.
func (s *Sampler) Wait() {
	s.wg.Wait()
}

// Sample takes one reading and emits it.
func (s *Sampler) Sample(ctx context.Context) error {
	sample, err := s.source(ctx)
	if err != nil {
		return err
	}

	hostname := s.config.Hostname()
	readings := []struct {
		name  string
		value float64
	}{
		{"cpu.load.1m", sample.Load1},
		{"cpu.load.5m", sample.Load5},
		{"cpu.load.15m", sample.Load15},
		{"mem.used_percent", sample.MemUsedPercent},
	}

	for _, reading := range readings {
		fields := te.Fields{te.ValueField: reading.value, te.HostnameField: hostname}
		if err := s.config.WriteMetric(ctx, s.name(reading.name), fields); err != nil {
			return err
		}
	}

	return nil
}

func (s *Sampler) collect(ctx context.Context) {
	if err := s.Sample(ctx); err != nil {
		s.logger.Warn("sysload: error sampling host: err=%v", err)
		return
	}

	s.logger.Debug("sysload: emitted host sample")
}

func (s *Sampler) name(metric string) string {
	if s.prefix == "" {
		return metric
	}

	return s.prefix + "." + metric
}
