package psutils

import (
	"context"
	"sort"
	"strconv"

	"github.com/Velocidex/ordereddict"
	"github.com/shirou/gopsutil/v4/process"
	"www.velocidex.com/golang/semwatch/config"
	"www.velocidex.com/golang/semwatch/shell"
)

// ProcessTable finds the accounts running processes by command name.
type ProcessTable interface {
	// Owning users of live processes named name, ordered by pid.
	UsersByCommand(ctx context.Context, name string) ([]string, error)
}

type ProcessInfo struct {
	Pid      int32
	Name     string
	Username string
	Zombie   bool
}

func (self ProcessInfo) ToDict() *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("Pid", self.Pid).
		Set("Name", self.Name).
		Set("Username", self.Username)
}

type GopsutilTable struct {
	list func(ctx context.Context) ([]ProcessInfo, error)
}

func NewGopsutilTable() *GopsutilTable {
	return &GopsutilTable{list: ListProcesses}
}

func (self *GopsutilTable) UsersByCommand(
	ctx context.Context, name string) ([]string, error) {
	processes, err := self.list(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(processes, func(i, j int) bool {
		return processes[i].Pid < processes[j].Pid
	})

	result := []string{}
	for _, p := range processes {
		if p.Name != name || p.Zombie {
			continue
		}
		result = append(result, p.Username)
	}
	return result, nil
}

// Only get a few fields from the process object otherwise we will
// spend too much time calling into virtual methods.
func ListProcesses(ctx context.Context) ([]ProcessInfo, error) {
	processes, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]ProcessInfo, 0, len(processes))
	for _, p := range processes {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Process exited while we were looking at it.
			continue
		}

		info := ProcessInfo{
			Pid:      p.Pid,
			Name:     name,
			Username: getUsername(ctx, p),
		}

		status, _ := p.StatusWithContext(ctx)
		for _, s := range status {
			if s == process.Zombie {
				info.Zombie = true
			}
		}

		result = append(result, info)
	}

	return result, nil
}

// When the uid has no account entry, report the uid itself.
func getUsername(ctx context.Context, p *process.Process) string {
	user, err := p.UsernameWithContext(ctx)
	if err == nil {
		return user
	}

	uids, err := p.UidsWithContext(ctx)
	if err != nil || len(uids) == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(uids[0]), 10)
}

func NewProcessTable(config_obj *config.Config) (ProcessTable, error) {
	switch config_obj.ProcessTable {
	case config.PROCESS_TABLE_PS:
		return NewPsTable(config_obj, shell.NewCommandRunner(config_obj))
	default:
		return NewGopsutilTable(), nil
	}
}
