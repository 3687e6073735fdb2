package semaphores

import (
	"context"
	"fmt"
	"os/user"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"www.velocidex.com/golang/semwatch/utils"
)

const (
	procSysvipcSem = "/proc/sysvipc/sem"

	// SEMMSL SEMMNS SEMOPM SEMMNI
	procKernelSem = "/proc/sys/kernel/sem"
)

var procfsLayout = tableLayout{
	name:          procSysvipcSem,
	key_column:    "key",
	owner_column:  "uid",
	count_column:  "nsems",
	default_key:   -1,
	default_owner: -1,
	default_count: -1,
	valid_key: func(key string) bool {
		_, err := strconv.ParseInt(key, 10, 64)
		return err == nil
	},
}

// ProcfsReader reads the kernel's view of semaphore sets directly,
// without relying on ipcs being installed.
type ProcfsReader struct {
	fs afero.Fs

	// Maps a numeric uid to an account name.
	lookup func(uid string) string
}

func NewProcfsReader() *ProcfsReader {
	return &ProcfsReader{
		fs:     afero.NewOsFs(),
		lookup: lookupUsername,
	}
}

func (self *ProcfsReader) Inventory(
	ctx context.Context, users ...string) ([]Record, error) {
	data, err := afero.ReadFile(self.fs, procSysvipcSem)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ExternalToolError, err)
	}

	records, err := procfsLayout.parse(string(data))
	if err != nil {
		return nil, err
	}

	// Resolve each uid once per pass.
	names := make(map[string]string)
	for idx := range records {
		uid := records[idx].Owner
		name, pres := names[uid]
		if !pres {
			name = self.lookup(uid)
			names[uid] = name
		}
		records[idx].Owner = name
	}

	return filterRecords(records, users), nil
}

func (self *ProcfsReader) Ceiling(ctx context.Context) (uint64, error) {
	data, err := afero.ReadFile(self.fs, procKernelSem)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", utils.ExternalToolError, err)
	}

	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, fmt.Errorf("%w: SEMMNS not found in %v",
			utils.ParseError, procKernelSem)
	}

	value, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid SEMMNS %q", utils.ParseError, fields[1])
	}
	return value, nil
}

// Falls back to the numeric uid like ipcs does for unknown accounts.
func lookupUsername(uid string) string {
	u, err := user.LookupId(uid)
	if err != nil {
		return uid
	}
	return u.Username
}
