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
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/Velocidex/yaml/v2"
	"github.com/google/shlex"
	"www.velocidex.com/golang/semwatch/constants"
	"www.velocidex.com/golang/semwatch/utils"
)

const (
	PROCESS_TABLE_GOPSUTIL = "gopsutil"
	PROCESS_TABLE_PS       = "ps"

	INVENTORY_SOURCE_IPCS   = "ipcs"
	INVENTORY_SOURCE_PROCFS = "procfs"
)

// Durations are written as Go duration strings (e.g. "10s") in the
// YAML file.
type Duration time.Duration

func (self Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(self).String(), nil
}

func (self *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var value string
	err := unmarshal(&value)
	if err != nil {
		return err
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: invalid duration %q", utils.InvalidArgumentError, value)
	}
	*self = Duration(d)
	return nil
}

func (self Duration) Duration() time.Duration {
	return time.Duration(self)
}

type LoggingConfig struct {
	// Directory for the operational log. Empty means stderr only.
	OutputDirectory string   `json:"output_directory,omitempty"`
	MaxAge          Duration `json:"max_age,omitempty"`
	Debug           bool     `json:"debug,omitempty"`
}

type Config struct {
	PrimaryProcess string `json:"primary_process,omitempty"`
	HelperProcess  string `json:"helper_process,omitempty"`

	// When set, identity resolution is skipped for that role.
	PrimaryUser string `json:"primary_user,omitempty"`
	HelperUser  string `json:"helper_user,omitempty"`

	ProcessTable    string `json:"process_table,omitempty"`
	InventorySource string `json:"inventory_source,omitempty"`

	InventoryCommand string   `json:"inventory_command,omitempty"`
	LimitsCommand    string   `json:"limits_command,omitempty"`
	PsCommand        string   `json:"ps_command,omitempty"`
	CommandTimeout   Duration `json:"command_timeout,omitempty"`

	LogFile     string   `json:"log_file,omitempty"`
	Interval    Duration `json:"interval"`
	MaxDuration Duration `json:"max_duration"`

	MetricsAddr string `json:"metrics_addr,omitempty"`

	Logging *LoggingConfig `json:"logging,omitempty"`

	// Set from the command line only.
	Verbose bool `json:"-"`
	NoColor bool `json:"-"`
}

func GetDefaultConfig() *Config {
	return &Config{
		PrimaryProcess:   constants.DEFAULT_PRIMARY_PROCESS,
		HelperProcess:    constants.DEFAULT_HELPER_PROCESS,
		ProcessTable:     PROCESS_TABLE_GOPSUTIL,
		InventorySource:  INVENTORY_SOURCE_IPCS,
		InventoryCommand: "ipcs -s",
		LimitsCommand:    "ipcs -sl",
		PsCommand:        "ps -o user:64= -C",
		CommandTimeout:   Duration(10 * time.Second),
		LogFile:          constants.DEFAULT_LOG_FILE,
		Logging: &LoggingConfig{
			MaxAge: Duration(7 * 24 * time.Hour),
		},
	}
}

func (self *Config) InventoryArgv() ([]string, error) {
	return splitCommand("inventory_command", self.InventoryCommand)
}

func (self *Config) LimitsArgv() ([]string, error) {
	return splitCommand("limits_command", self.LimitsCommand)
}

func (self *Config) PsArgv() ([]string, error) {
	return splitCommand("ps_command", self.PsCommand)
}

func splitCommand(name, command string) ([]string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", utils.InvalidArgumentError, name, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: %v is empty", utils.InvalidArgumentError, name)
	}
	return argv, nil
}

func (self *Config) Validate() error {
	if self.PrimaryProcess == "" && self.PrimaryUser == "" {
		return fmt.Errorf("%w: primary_process or primary_user is required",
			utils.InvalidArgumentError)
	}

	if self.HelperProcess == "" && self.HelperUser == "" {
		return fmt.Errorf("%w: helper_process or helper_user is required",
			utils.InvalidArgumentError)
	}

	switch self.ProcessTable {
	case PROCESS_TABLE_GOPSUTIL:
	case PROCESS_TABLE_PS:
		_, err := self.PsArgv()
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown process_table %q",
			utils.InvalidArgumentError, self.ProcessTable)
	}

	switch self.InventorySource {
	case INVENTORY_SOURCE_PROCFS:
	case INVENTORY_SOURCE_IPCS:
		_, err := self.InventoryArgv()
		if err != nil {
			return err
		}
		_, err = self.LimitsArgv()
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown inventory_source %q",
			utils.InvalidArgumentError, self.InventorySource)
	}

	if self.CommandTimeout <= 0 {
		return fmt.Errorf("%w: command_timeout must be positive",
			utils.InvalidArgumentError)
	}

	if self.Interval < 0 || self.MaxDuration < 0 {
		return fmt.Errorf("%w: interval and max_duration can not be negative",
			utils.InvalidArgumentError)
	}

	if self.LogFile == "" {
		return fmt.Errorf("%w: log_file is required", utils.InvalidArgumentError)
	}

	return nil
}

// Load the config stored in the YAML file on top of the defaults.
func LoadConfig(filename string) (*Config, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return ParseConfigFromString(data)
}

func ParseConfigFromString(data []byte) (*Config, error) {
	result := GetDefaultConfig()
	err := yaml.UnmarshalStrict(data, result)
	if err != nil {
		return nil, err
	}

	if result.Logging == nil {
		result.Logging = &LoggingConfig{}
	}
	return result, nil
}

func Encode(config_obj *Config) ([]byte, error) {
	res, err := yaml.Marshal(config_obj)
	return res, err
}

func WriteConfigToFile(filename string, config_obj *Config) error {
	bytes, err := Encode(config_obj)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filename, bytes, 0600)
}

// Environment variable naming a config file.
const SEMWATCH_CONFIG_ENV = "SEMWATCH_CONFIG"
