/*
   semwatch - System V semaphore usage sampler
   Copyright (C) 2025 Rapid7 Inc.

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU Affero General Public License as published
   by the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Affero General Public License for more details.

   You should have received a copy of the GNU Affero General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package sampler

import (
	"context"
	"fmt"
	"time"

	"www.velocidex.com/golang/semwatch/config"
	"www.velocidex.com/golang/semwatch/file_store/csv"
	"www.velocidex.com/golang/semwatch/logging"
	"www.velocidex.com/golang/semwatch/semaphores"
	"www.velocidex.com/golang/semwatch/utils"
)

// Sampler takes samples for a fixed set of identities. Identities are
// resolved once by the caller and reused for every pass.
type Sampler struct {
	config_obj *config.Config
	identities []semaphores.Identity
	reader     semaphores.Reader
	sink       csv.SampleSink
	clock      utils.Clock
	metrics    *Metrics

	warned_shared bool
}

func NewSampler(
	config_obj *config.Config,
	identities []semaphores.Identity,
	reader semaphores.Reader,
	sink csv.SampleSink,
	clock utils.Clock,
	metrics *Metrics) *Sampler {
	if metrics == nil {
		metrics = NewMetrics()
	}

	return &Sampler{
		config_obj: config_obj,
		identities: identities,
		reader:     reader,
		sink:       sink,
		clock:      clock,
		metrics:    metrics,
	}
}

func (self *Sampler) Metrics() *Metrics {
	return self.metrics
}

// TakeSample reads the ceiling and the inventory and aggregates them
// without writing anything.
func (self *Sampler) TakeSample(ctx context.Context) (*semaphores.Sample, error) {
	now := self.clock.Now()

	ceiling, err := self.reader.Ceiling(ctx)
	if err != nil {
		return nil, err
	}

	records, err := self.reader.Inventory(ctx)
	if err != nil {
		return nil, err
	}

	tally, err := semaphores.Aggregate(records, self.identities...)
	if err != nil {
		return nil, err
	}

	if tally.Shared && !self.warned_shared {
		logger := logging.GetLogger(self.config_obj, &logging.SamplerComponent)
		logger.Warn("Tracked roles share an account (%v): both columns "+
			"report the combined count for that account", self.describeIdentities())
		self.warned_shared = true
	}

	return &semaphores.Sample{
		Timestamp: now,
		Tally:     tally,
		Ceiling:   ceiling,
	}, nil
}

// SamplePass takes one sample and appends it to the sink. Nothing is
// appended when any step fails.
func (self *Sampler) SamplePass(ctx context.Context) (*semaphores.Sample, error) {
	sample, err := self.TakeSample(ctx)
	if err == nil {
		err = self.sink.Append(sample)
	}

	if err != nil {
		self.metrics.fail(err)
		return nil, err
	}

	self.metrics.observe(sample)
	return sample, nil
}

type RunStats struct {
	Rows     int
	Failures int
}

// Run takes a single sample when interval is 0. Otherwise it samples
// every interval until max_duration has elapsed (forever when 0) or
// the context is cancelled. Failed passes are logged and the loop
// carries on with the next interval.
func (self *Sampler) Run(ctx context.Context,
	interval, max_duration time.Duration) (*RunStats, error) {
	stats := &RunStats{}

	if interval == 0 {
		_, err := self.SamplePass(ctx)
		if err != nil {
			stats.Failures++
			return stats, err
		}
		stats.Rows++
		return stats, nil
	}

	logger := logging.GetLogger(self.config_obj, &logging.SamplerComponent)
	start := self.clock.Now()

	var last_err error
	for {
		_, err := self.SamplePass(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			stats.Failures++
			last_err = err
			logger.Error("Sampling pass failed: %v", err)
		} else {
			stats.Rows++
		}

		if max_duration > 0 && self.clock.Now().Sub(start) >= max_duration {
			break
		}

		if !utils.SleepWithCtx(ctx, self.clock, interval) {
			break
		}
	}

	if stats.Rows == 0 && last_err != nil {
		return stats, fmt.Errorf("no samples taken: %w", last_err)
	}

	return stats, nil
}

func (self *Sampler) describeIdentities() string {
	result := ""
	for idx, identity := range self.identities {
		if idx > 0 {
			result += ", "
		}
		result += fmt.Sprintf("%v=%v", identity.Role, identity.User)
	}
	return result
}
