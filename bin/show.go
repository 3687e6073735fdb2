package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Velocidex/ordereddict"
	"github.com/alecthomas/kingpin/v2"
	"www.velocidex.com/golang/semwatch/json"
	"www.velocidex.com/golang/semwatch/psutils"
	"www.velocidex.com/golang/semwatch/reporting"
	"www.velocidex.com/golang/semwatch/utils"
)

var (
	show_command = app.Command(
		"show", "Take one sample and print it without writing the sample log.")

	show_json = show_command.Flag("json", "Print the sample as JSON.").Bool()

	processes_command = app.Command(
		"processes", "List the processes of the tracked command names.")

	processes_json = processes_command.Flag("json", "Print JSONL rows.").Bool()
)

func doShow() error {
	config_obj, err := loadConfig(makeDefaultConfigLoader())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	s, err := makeSampler(ctx, config_obj, nil)
	if err != nil {
		return err
	}

	sample, err := s.TakeSample(ctx)
	if err != nil {
		return err
	}

	if *show_json {
		serialized, err := json.MarshalIndent(sample.ToDict())
		if err != nil {
			return err
		}
		fmt.Println(string(serialized))
		return nil
	}

	reporting.TallyTable(sample, os.Stdout).Render()
	return nil
}

func doProcesses() error {
	config_obj, err := loadConfig(makeDefaultConfigLoader())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	processes, err := psutils.ListProcesses(context.Background())
	if err != nil {
		return err
	}

	names := []string{config_obj.PrimaryProcess, config_obj.HelperProcess}
	rows := []*ordereddict.Dict{}
	for _, p := range processes {
		if utils.InString(names, p.Name) {
			rows = append(rows, p.ToDict())
		}
	}

	if *processes_json {
		serialized, err := json.MarshalJsonl(rows)
		if err != nil {
			return err
		}
		fmt.Print(string(serialized))
		return nil
	}

	reporting.OutputRowsToTable(rows, os.Stdout).Render()
	return nil
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case show_command.FullCommand():
			kingpin.FatalIfError(doShow(), "show")

		case processes_command.FullCommand():
			kingpin.FatalIfError(doProcesses(), "processes")

		default:
			return false
		}
		return true
	})
}
