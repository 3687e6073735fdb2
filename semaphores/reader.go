package semaphores

import (
	"context"

	"www.velocidex.com/golang/semwatch/config"
	"www.velocidex.com/golang/semwatch/shell"
)

// Reader is the source of semaphore accounting on the host.
type Reader interface {
	// All active semaphore sets, optionally only those owned by
	// users. Records sharing an owner are returned separately.
	Inventory(ctx context.Context, users ...string) ([]Record, error)

	// The configured system wide semaphore limit.
	Ceiling(ctx context.Context) (uint64, error)
}

// IpcsReader shells out to ipcs.
type IpcsReader struct {
	runner         shell.Runner
	inventory_argv []string
	limits_argv    []string
}

func NewIpcsReader(config_obj *config.Config, runner shell.Runner) (*IpcsReader, error) {
	inventory_argv, err := config_obj.InventoryArgv()
	if err != nil {
		return nil, err
	}

	limits_argv, err := config_obj.LimitsArgv()
	if err != nil {
		return nil, err
	}

	return &IpcsReader{
		runner:         runner,
		inventory_argv: inventory_argv,
		limits_argv:    limits_argv,
	}, nil
}

func (self *IpcsReader) Inventory(
	ctx context.Context, users ...string) ([]Record, error) {
	result, err := self.runner.Run(ctx, self.inventory_argv)
	if err != nil {
		return nil, err
	}
	return ParseInventory(result.Stdout, users...)
}

func (self *IpcsReader) Ceiling(ctx context.Context) (uint64, error) {
	result, err := self.runner.Run(ctx, self.limits_argv)
	if err != nil {
		return 0, err
	}
	return ParseCeiling(result.Stdout)
}

func NewReader(config_obj *config.Config) (Reader, error) {
	switch config_obj.InventorySource {
	case config.INVENTORY_SOURCE_PROCFS:
		return NewProcfsReader(), nil
	default:
		return NewIpcsReader(config_obj, shell.NewCommandRunner(config_obj))
	}
}
