package main

import (
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"www.velocidex.com/golang/semwatch/config"
)

var (
	config_command = app.Command("config", "Manipulate the configuration.")

	config_show_command = config_command.Command(
		"show", "Show the current config.")

	config_generate_command = config_command.Command(
		"generate", "Generate a new config file with the default settings.")

	config_generate_output = config_generate_command.Arg(
		"output", "Write the config to this file instead of stdout.").String()
)

func doShowConfig() error {
	config_obj, err := makeDefaultConfigLoader().LoadAndValidate()
	if err != nil {
		return err
	}

	res, err := config.Encode(config_obj)
	if err != nil {
		return err
	}
	fmt.Printf("%v", string(res))
	return nil
}

func doGenerateConfig() error {
	config_obj := config.GetDefaultConfig()

	if *config_generate_output != "" {
		return config.WriteConfigToFile(*config_generate_output, config_obj)
	}

	res, err := config.Encode(config_obj)
	if err != nil {
		return err
	}
	fmt.Printf("%v", string(res))
	return nil
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case config_show_command.FullCommand():
			kingpin.FatalIfError(doShowConfig(), "Unable to show config.")

		case config_generate_command.FullCommand():
			kingpin.FatalIfError(doGenerateConfig(), "Unable to generate config.")

		default:
			return false
		}
		return true
	})
}
