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
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"www.velocidex.com/golang/semwatch/config"
	"www.velocidex.com/golang/semwatch/file_store/csv"
	"www.velocidex.com/golang/semwatch/logging"
	"www.velocidex.com/golang/semwatch/psutils"
	"www.velocidex.com/golang/semwatch/sampler"
	"www.velocidex.com/golang/semwatch/semaphores"
	"www.velocidex.com/golang/semwatch/utils"
)

var (
	collect_command = app.Command(
		"collect", "Append semaphore usage samples to the sample log.").Default()

	collect_logfile = collect_command.Arg(
		"logfile", "CSV file to append samples to (default db2andsyssems.csv).").
		String()

	collect_interval = collect_command.Arg(
		"interval", "Seconds between samples, 0 takes a single sample (default 0).").
		String()

	collect_max_minutes = collect_command.Arg(
		"max_minutes", "Stop collecting after this many minutes, 0 runs "+
			"until terminated (default 0).").String()

	collect_primary_process = collect_command.Flag(
		"primary_process", "Command name of the database instance process.").
		String()

	collect_helper_process = collect_command.Flag(
		"helper_process", "Command name of the fenced helper processes.").
		String()

	collect_inventory_source = collect_command.Flag(
		"inventory_source", "Where to read semaphore sets from (ipcs or procfs).").
		String()

	collect_metrics_addr = collect_command.Flag(
		"metrics_addr", "Serve Prometheus metrics on this address.").String()
)

func parseSeconds(name, value string, unit time.Duration) (time.Duration, error) {
	number, err := strconv.ParseFloat(value, 64)
	if err != nil || number < 0 {
		return 0, fmt.Errorf("%w: %v must be a non-negative number, not %q",
			utils.InvalidArgumentError, name, value)
	}
	return time.Duration(number * float64(unit)), nil
}

// Command line arguments override the config file.
func applyCollectArgs(config_obj *config.Config) error {
	if *collect_logfile != "" {
		config_obj.LogFile = *collect_logfile
	}

	if *collect_interval != "" {
		interval, err := parseSeconds("interval", *collect_interval, time.Second)
		if err != nil {
			return err
		}
		config_obj.Interval = config.Duration(interval)
	}

	if *collect_max_minutes != "" {
		max_duration, err := parseSeconds(
			"max_minutes", *collect_max_minutes, time.Minute)
		if err != nil {
			return err
		}
		config_obj.MaxDuration = config.Duration(max_duration)
	}

	if *collect_primary_process != "" {
		config_obj.PrimaryProcess = *collect_primary_process
	}

	if *collect_helper_process != "" {
		config_obj.HelperProcess = *collect_helper_process
	}

	if *collect_inventory_source != "" {
		config_obj.InventorySource = *collect_inventory_source
	}

	if *collect_metrics_addr != "" {
		config_obj.MetricsAddr = *collect_metrics_addr
	}
	return nil
}

// The metrics listener needs a host:port with a numeric port.
func validateMetricsAddr(config_obj *config.Config) error {
	if config_obj.MetricsAddr == "" {
		return nil
	}

	_, port, err := net.SplitHostPort(config_obj.MetricsAddr)
	if err == nil {
		_, err = strconv.ParseUint(port, 10, 16)
	}
	if err != nil {
		return fmt.Errorf("%w: metrics_addr %q is not host:port",
			utils.InvalidArgumentError, config_obj.MetricsAddr)
	}
	return nil
}

// Resolves the tracked identities once and builds a sampler writing
// to sink.
func makeSampler(ctx context.Context,
	config_obj *config.Config, sink csv.SampleSink) (*sampler.Sampler, error) {
	table, err := psutils.NewProcessTable(config_obj)
	if err != nil {
		return nil, err
	}

	identities, err := psutils.ResolveConfiguredIdentities(ctx, config_obj, table)
	if err != nil {
		return nil, err
	}

	logger := logging.GetLogger(config_obj, &logging.ToolComponent)
	for _, identity := range identities {
		logger.Debug("Tracking %v semaphores owned by %v",
			identity.Role, identity.User)
	}

	reader, err := semaphores.NewReader(config_obj)
	if err != nil {
		return nil, err
	}

	return sampler.NewSampler(config_obj, identities, reader, sink,
		utils.RealClock{}, sampler.NewMetrics()), nil
}

func startMetricsServer(ctx context.Context,
	config_obj *config.Config, metrics *sampler.Metrics) {
	if config_obj.MetricsAddr == "" {
		return
	}

	logger := logging.GetLogger(config_obj, &logging.ToolComponent)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		metrics.Registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    config_obj.MetricsAddr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	go func() {
		logger.Info("Serving metrics on http://%v/metrics", config_obj.MetricsAddr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server: %v", err)
		}
	}()
}

func describeDuration(max_duration time.Duration) string {
	if max_duration == 0 {
		return "until terminated"
	}
	return fmt.Sprintf("for %v minutes", max_duration.Minutes())
}

func doCollect() error {
	config_obj, err := loadConfig(makeDefaultConfigLoader().
		WithConfigMutator("CollectArgs", applyCollectArgs).
		WithCustomValidator("MetricsAddr", validateMetricsAddr))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	writer := csv.NewSampleWriter(config_obj.LogFile)
	s, err := makeSampler(ctx, config_obj, writer)
	if err != nil {
		return err
	}

	startMetricsServer(ctx, config_obj, s.Metrics())

	interval := config_obj.Interval.Duration()
	max_duration := config_obj.MaxDuration.Duration()

	logger := logging.GetLogger(config_obj, &logging.ToolComponent)
	if interval > 0 {
		logger.Info("Start collecting semaphore usage %v at every %v seconds into %v",
			describeDuration(max_duration), interval.Seconds(), writer.Filename())
	}

	stats, err := s.Run(ctx, interval, max_duration)

	if interval > 0 {
		logger.Info("End collecting semaphore usage, %v rows added to %v",
			humanize.Comma(int64(stats.Rows)), writer.Filename())
	}

	return err
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case collect_command.FullCommand():
			err := doCollect()
			kingpin.FatalIfError(err, "collect")

		default:
			return false
		}
		return true
	})
}
