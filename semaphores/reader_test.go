package semaphores

import (
	"context"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"www.velocidex.com/golang/semwatch/config"
	"www.velocidex.com/golang/semwatch/shell"
	"www.velocidex.com/golang/semwatch/utils"
)

// Returns canned output keyed by the command name.
type fakeRunner struct {
	outputs map[string]string
	errors  map[string]error
	calls   []string
}

func (self *fakeRunner) Run(ctx context.Context, argv []string) (*shell.Result, error) {
	key := fmt.Sprintf("%v", argv)
	self.calls = append(self.calls, key)

	err, pres := self.errors[key]
	if pres {
		return nil, err
	}

	return &shell.Result{Argv: argv, Stdout: self.outputs[key], Complete: true}, nil
}

func newIpcsReader(t *testing.T, runner *fakeRunner) *IpcsReader {
	reader, err := NewIpcsReader(config.GetDefaultConfig(), runner)
	require.NoError(t, err)
	return reader
}

func TestIpcsReader(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"[ipcs -s]":  ipcsOutput,
		"[ipcs -sl]": ipcsLimits,
	}}
	reader := newIpcsReader(t, runner)

	records, err := reader.Inventory(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 4)

	records, err = reader.Inventory(context.Background(), "fmp", "root")
	require.NoError(t, err)
	assert.Equal(t, []Record{{"fmp", 3}, {"root", 2}}, records)

	ceiling, err := reader.Ceiling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1024000000), ceiling)

	assert.Equal(t, []string{"[ipcs -s]", "[ipcs -s]", "[ipcs -sl]"}, runner.calls)
}

func TestIpcsReaderCommandFailure(t *testing.T) {
	runner := &fakeRunner{errors: map[string]error{
		"[ipcs -s]":  fmt.Errorf("%w: ipcs not found", utils.ExternalToolError),
		"[ipcs -sl]": fmt.Errorf("%w: ipcs timed out", utils.ExternalToolError),
	}}
	reader := newIpcsReader(t, runner)

	_, err := reader.Inventory(context.Background())
	assert.ErrorIs(t, err, utils.ExternalToolError)

	_, err = reader.Ceiling(context.Background())
	assert.ErrorIs(t, err, utils.ExternalToolError)
}

func TestIpcsReaderCustomCommands(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.InventoryCommand = `/usr/bin/ipcs -s -c "x y"`

	reader, err := NewIpcsReader(config_obj, &fakeRunner{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/ipcs", "-s", "-c", "x y"}, reader.inventory_argv)

	config_obj.LimitsCommand = ""
	_, err = NewIpcsReader(config_obj, &fakeRunner{})
	assert.ErrorIs(t, err, utils.InvalidArgumentError)
}

const sysvipcSem = `       key      semid perms      nsems   uid   gid  cuid  cgid      otime      ctime
         0          0   600          5  1001  1001  1001  1001          0 1600000000
         0          1   600          3  1002  1002  1002  1002          0 1600000000
 168496141          2   600          2     0     0     0     0          0 1600000000
         0          3   600          1  1001  1001  1001  1001          0 1600000000
`

func newProcfsReader(t *testing.T, sem, kernel_sem string) *ProcfsReader {
	fs := afero.NewMemMapFs()
	if sem != "" {
		require.NoError(t, afero.WriteFile(fs, procSysvipcSem, []byte(sem), 0644))
	}
	if kernel_sem != "" {
		require.NoError(t, afero.WriteFile(fs, procKernelSem, []byte(kernel_sem), 0644))
	}

	names := map[string]string{"0": "root", "1001": "dbinst"}
	return &ProcfsReader{
		fs: fs,
		lookup: func(uid string) string {
			name, pres := names[uid]
			if !pres {
				return uid
			}
			return name
		},
	}
}

func TestProcfsReader(t *testing.T) {
	reader := newProcfsReader(t, sysvipcSem, "32000\t1024000000\t500\t32000\n")

	records, err := reader.Inventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{"dbinst", 5}, {"1002", 3}, {"root", 2}, {"dbinst", 1},
	}, records)

	records, err = reader.Inventory(context.Background(), "dbinst")
	require.NoError(t, err)
	assert.Equal(t, []Record{{"dbinst", 5}, {"dbinst", 1}}, records)

	ceiling, err := reader.Ceiling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1024000000), ceiling)
}

func TestProcfsReaderErrors(t *testing.T) {
	reader := newProcfsReader(t, "", "")

	_, err := reader.Inventory(context.Background())
	assert.ErrorIs(t, err, utils.ExternalToolError)

	_, err = reader.Ceiling(context.Background())
	assert.ErrorIs(t, err, utils.ExternalToolError)

	reader = newProcfsReader(t, sysvipcSem+"         0          4   600\n", "32000\n")
	_, err = reader.Inventory(context.Background())
	assert.ErrorIs(t, err, utils.ExternalToolError)

	_, err = reader.Ceiling(context.Background())
	assert.ErrorIs(t, err, utils.ParseError)

	// A kernel table without uid and nsems headers.
	reader = newProcfsReader(t, "key semid perms\n0 4 600\n", "32000\n")
	_, err = reader.Inventory(context.Background())
	assert.ErrorIs(t, err, utils.ExternalToolError)
}
