package psutils

import (
	"context"
	"strings"

	"www.velocidex.com/golang/semwatch/config"
	"www.velocidex.com/golang/semwatch/shell"
)

type PsTable struct {
	runner shell.Runner
	argv   []string
}

func NewPsTable(config_obj *config.Config, runner shell.Runner) (*PsTable, error) {
	argv, err := config_obj.PsArgv()
	if err != nil {
		return nil, err
	}
	return &PsTable{runner: runner, argv: argv}, nil
}

func (self *PsTable) UsersByCommand(
	ctx context.Context, name string) ([]string, error) {
	argv := append(append([]string{}, self.argv...), name)

	result, err := self.runner.Run(ctx, argv)
	if err != nil {
		// ps exits with 1 when nothing matched.
		if result != nil && result.ReturnCode == 1 &&
			strings.TrimSpace(result.Stdout) == "" {
			return []string{}, nil
		}
		return nil, err
	}

	return parsePsUsers(result.Stdout), nil
}

// One user per line. A USER header is tolerated in case the command
// was configured without suppressing it.
func parsePsUsers(text string) []string {
	result := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(result) == 0 && line == "USER" {
			continue
		}
		result = append(result, line)
	}
	return result
}
