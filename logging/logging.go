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
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/Velocidex/file-rotatelogs"
	isatty "github.com/mattn/go-isatty"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"www.velocidex.com/golang/semwatch/config"
)

var (
	GenericComponent = "semwatch"
	ToolComponent    = "semwatch tool"
	SamplerComponent = "semwatch sampler"

	Manager *LogManager

	// Markup tags used in messages, e.g. <green>text</>. They are
	// stripped before output.
	tag_regex = regexp.MustCompile(`</>|<(red|green|yellow|blue|cyan)>`)

	memory_logs = &memoryHook{max_size: 1000}
)

// The log manager keeps one logrus logger per component so
// components can be routed to different files.
type LogManager struct {
	mu      sync.Mutex
	loggers map[*string]*logrus.Logger
}

func (self *LogManager) Reset() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.loggers = make(map[*string]*logrus.Logger)
}

func (self *LogManager) GetLogger(
	config_obj *config.Config, component *string) *LogContext {
	self.mu.Lock()
	defer self.mu.Unlock()

	logger, pres := self.loggers[component]
	if !pres {
		logger = newLogger(config_obj, component, os.Stderr)
		self.loggers[component] = logger
	}

	return &LogContext{Logger: logger, component: component}
}

type LogContext struct {
	*logrus.Logger
	component *string
}

func (self *LogContext) Debug(format string, v ...interface{}) {
	self.Logger.Debug(clearTag(fmt.Sprintf(format, v...)))
}

func (self *LogContext) Info(format string, v ...interface{}) {
	self.Logger.Info(clearTag(fmt.Sprintf(format, v...)))
}

func (self *LogContext) Warn(format string, v ...interface{}) {
	self.Logger.Warn(clearTag(fmt.Sprintf(format, v...)))
}

func (self *LogContext) Error(format string, v ...interface{}) {
	self.Logger.Error(clearTag(fmt.Sprintf(format, v...)))
}

func (self *LogContext) WithFields(fields logrus.Fields) *logrus.Entry {
	return self.Logger.WithFields(fields)
}

func GetLogger(config_obj *config.Config, component *string) *LogContext {
	return Manager.GetLogger(config_obj, component)
}

func newLogger(config_obj *config.Config,
	component *string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.Out = out
	logger.Level = logrus.InfoLevel
	logger.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   !useColor(config_obj),
	}

	if config_obj != nil {
		if config_obj.Logging != nil && config_obj.Logging.Debug {
			logger.Level = logrus.DebugLevel
		}
	}

	logger.AddHook(memory_logs)

	if config_obj != nil && config_obj.Logging != nil &&
		config_obj.Logging.OutputDirectory != "" {
		hook, err := getFileHook(config_obj, component)
		if err == nil {
			logger.AddHook(hook)
		} else {
			Prelog("Unable to open log directory: %v", err)
		}
	}

	return logger
}

func useColor(config_obj *config.Config) bool {
	if config_obj != nil && config_obj.NoColor {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd())
}

func getFileHook(config_obj *config.Config, component *string) (
	logrus.Hook, error) {
	base_directory := config_obj.Logging.OutputDirectory
	err := os.MkdirAll(base_directory, 0700)
	if err != nil {
		return nil, err
	}

	base_filename := filepath.Join(base_directory,
		strings.Replace(*component, " ", "_", -1))

	max_age := config_obj.Logging.MaxAge.Duration()
	if max_age == 0 {
		max_age = 7 * 24 * time.Hour
	}

	writer, err := rotatelogs.New(
		base_filename+".%Y%m%d.log",
		rotatelogs.WithLinkName(base_filename+".log"),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(max_age))
	if err != nil {
		return nil, err
	}

	return lfshook.NewHook(lfshook.WriterMap{
		logrus.DebugLevel: writer,
		logrus.InfoLevel:  writer,
		logrus.WarnLevel:  writer,
		logrus.ErrorLevel: writer,
	}, &logrus.JSONFormatter{}), nil
}

// Sets up logging for the loaded config. Loggers created before this
// call are discarded.
func InitLogging(config_obj *config.Config) error {
	Manager.Reset()

	if config_obj.Logging != nil && config_obj.Logging.OutputDirectory != "" {
		// Fail early if the directory is not usable.
		_, err := getFileHook(config_obj, &GenericComponent)
		if err != nil {
			return err
		}
	}
	return nil
}

// Early messages logged before the config is known.
func Prelog(format string, v ...interface{}) {
	msg := clearTag(fmt.Sprintf(format, v...))
	memory_logs.add("[PRELOG] " + msg)
	fmt.Fprintf(os.Stderr, "%s\n", msg)
}

func clearTag(message string) string {
	return tag_regex.ReplaceAllString(message, "")
}

// Keeps the most recent log lines in memory so tests can inspect
// them.
type memoryHook struct {
	mu       sync.Mutex
	lines    []string
	max_size int
}

func (self *memoryHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (self *memoryHook) Fire(entry *logrus.Entry) error {
	self.add(fmt.Sprintf("[%s] %s",
		strings.ToUpper(entry.Level.String()), entry.Message))
	return nil
}

func (self *memoryHook) add(line string) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.lines = append(self.lines, line)
	if len(self.lines) > self.max_size {
		self.lines = self.lines[len(self.lines)-self.max_size:]
	}
}

func GetMemoryLogs() []string {
	memory_logs.mu.Lock()
	defer memory_logs.mu.Unlock()

	return append([]string{}, memory_logs.lines...)
}

func ClearMemoryLogs() {
	memory_logs.mu.Lock()
	defer memory_logs.mu.Unlock()

	memory_logs.lines = nil
}

func init() {
	Manager = &LogManager{}
	Manager.Reset()
}
