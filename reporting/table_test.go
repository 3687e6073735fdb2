package reporting

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/stretchr/testify/assert"
	"www.velocidex.com/golang/semwatch/semaphores"
)

func TestTallyTable(t *testing.T) {
	tally, err := semaphores.Aggregate([]semaphores.Record{
		{Owner: "dbinst", Count: 5},
		{Owner: "fmp", Count: 3},
		{Owner: "root", Count: 2},
		{Owner: "dbinst", Count: 1},
	},
		semaphores.Identity{Role: semaphores.PrimaryRole, User: "dbinst"},
		semaphores.Identity{Role: semaphores.HelperRole, User: "fmp"})
	assert.NoError(t, err)

	buf := &bytes.Buffer{}
	TallyTable(&semaphores.Sample{
		Timestamp: time.Unix(1600000000, 0),
		Tally:     tally,
		Ceiling:   1024000000,
	}, buf).Render()

	output := buf.String()
	assert.Regexp(t, `\| +Bucket +\| +User +\| Semaphores \|`, output)
	assert.Regexp(t, `\| primary +\| dbinst +\| +6 \|`, output)
	assert.Regexp(t, `\| helper +\| fmp +\| +3 \|`, output)
	assert.Regexp(t, `\| system +\| +\| +2 \|`, output)

	// The caption wraps to the table width.
	assert.Contains(t, strings.Join(strings.Fields(output), " "),
		"11 of 1,024,000,000 semaphores in use")
}

func TestOutputRowsToTableMissingColumns(t *testing.T) {
	buf := &bytes.Buffer{}
	OutputRowsToTable([]*ordereddict.Dict{
		ordereddict.NewDict().Set("Pid", 1).Set("Name", "init"),
		ordereddict.NewDict().Set("Pid", 2),
	}, buf).Render()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	// Border, header, border, two rows, border.
	assert.Equal(t, 6, len(lines))
	assert.Regexp(t, `\| +2 \| +\|`, lines[4])
}
