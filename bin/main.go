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
	"os"

	"github.com/alecthomas/kingpin/v2"
	"www.velocidex.com/golang/semwatch/config"
	"www.velocidex.com/golang/semwatch/logging"
)

type CommandHandler func(command string) bool

var (
	app = kingpin.New("semwatch",
		"Samples System V semaphore usage by the database instance, "+
			"its fenced helpers and everything else.")

	config_path = app.Flag("config", "The configuration file.").Short('c').
			String()

	verbose_flag = app.Flag(
		"verbose", "Enable verbose logging.").Short('v').
		Default("false").Bool()

	nocolor_flag = app.Flag("nocolor", "Disable color output").Bool()

	command_handlers []CommandHandler
)

func makeDefaultConfigLoader() *config.Loader {
	return config.NewLoader().
		WithVerbose(*verbose_flag).
		WithLogger(logging.Prelog).
		WithFileLoader(*config_path).
		WithEnvLoader(config.SEMWATCH_CONFIG_ENV).
		WithDefaultLoader().
		WithConfigMutator("NoColor", func(config_obj *config.Config) error {
			config_obj.NoColor = *nocolor_flag
			return nil
		})
}

// Loads the config through the loader and sets up logging for it.
func loadConfig(loader *config.Loader) (*config.Config, error) {
	config_obj, err := loader.LoadAndValidate()
	if err != nil {
		return nil, err
	}

	if config_obj.Verbose && config_obj.Logging != nil {
		config_obj.Logging.Debug = true
	}

	err = logging.InitLogging(config_obj)
	if err != nil {
		return nil, err
	}

	return config_obj, nil
}

// A lone ? asks for help.
func normalizeArgs(args []string) []string {
	result := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "?" {
			arg = "--help"
		}
		result = append(result, arg)
	}
	return result
}

func main() {
	app.HelpFlag.Short('h')
	app.UsageTemplate(kingpin.CompactUsageTemplate)

	args := normalizeArgs(os.Args[1:])
	command := kingpin.MustParse(app.Parse(args))

	for _, command_handler := range command_handlers {
		if command_handler(command) {
			break
		}
	}
}
