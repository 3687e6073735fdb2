package csv

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"www.velocidex.com/golang/semwatch/constants"
	"www.velocidex.com/golang/semwatch/semaphores"
	"www.velocidex.com/golang/semwatch/utils"
	"www.velocidex.com/golang/semwatch/vtesting"
)

func makeSample(t *testing.T, ts time.Time, records ...semaphores.Record) *semaphores.Sample {
	tally, err := semaphores.Aggregate(records,
		semaphores.Identity{Role: semaphores.PrimaryRole, User: "dbinst"},
		semaphores.Identity{Role: semaphores.HelperRole, User: "fmp"})
	require.NoError(t, err)

	return &semaphores.Sample{Timestamp: ts, Tally: tally, Ceiling: 32000}
}

func TestFormatRow(t *testing.T) {
	sample := makeSample(t, time.Unix(1592236800, 123456789),
		semaphores.Record{Owner: "dbinst", Count: 5},
		semaphores.Record{Owner: "fmp", Count: 3},
		semaphores.Record{Owner: "root", Count: 2},
		semaphores.Record{Owner: "dbinst", Count: 1})

	row, err := FormatRow(sample)
	require.NoError(t, err)
	assert.Equal(t, []string{"1592236800.123456", "6", "3", "2", "32000"}, row)

	assert.Equal(t, "1592236800.000000", FormatTimestamp(time.Unix(1592236800, 0)))

	_, err = FormatRow(&semaphores.Sample{})
	assert.ErrorIs(t, err, utils.InvalidArgumentError)
}

func TestHeaderWrittenOnce(t *testing.T) {
	fs := afero.NewMemMapFs()

	for _, n := range []int{1, 2, 7} {
		filename := "/logs/samples.csv"
		require.NoError(t, fs.RemoveAll("/logs"))
		require.NoError(t, fs.MkdirAll("/logs", 0755))

		for i := 0; i < n; i++ {
			// A new writer per sample behaves like a process restart.
			writer := NewSampleWriterWithFs(fs, filename)
			err := writer.Append(makeSample(t, time.Unix(int64(1600000000+i), 0)))
			require.NoError(t, err)
		}

		data, err := afero.ReadFile(fs, filename)
		require.NoError(t, err)

		lines := vtesting.Lines(string(data))
		require.Len(t, lines, n+1)
		assert.Equal(t, constants.SAMPLE_LOG_HEADER, lines[0])
		for _, line := range lines[1:] {
			assert.NotEqual(t, constants.SAMPLE_LOG_HEADER, line)
		}
	}
}

func TestEmptyInventoryRow(t *testing.T) {
	fs := afero.NewMemMapFs()
	writer := NewSampleWriterWithFs(fs, "samples.csv")
	require.NoError(t, writer.Append(makeSample(t, time.Unix(1600000000, 500000000))))

	data, err := afero.ReadFile(fs, "samples.csv")
	require.NoError(t, err)
	assert.Equal(t, constants.SAMPLE_LOG_HEADER+"\n"+
		"1600000000.500000,0,0,0,32000\n", string(data))
}

// An empty file left by e.g. log rotation gets a header.
func TestExistingEmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "samples.csv", nil, 0644))

	writer := NewSampleWriterWithFs(fs, "samples.csv")
	require.NoError(t, writer.Append(makeSample(t, time.Unix(1600000000, 0))))

	data, err := afero.ReadFile(fs, "samples.csv")
	require.NoError(t, err)
	assert.Equal(t, constants.SAMPLE_LOG_HEADER, vtesting.Lines(string(data))[0])
}

func TestAppendToExistingLog(t *testing.T) {
	fs := afero.NewMemMapFs()
	existing := constants.SAMPLE_LOG_HEADER + "\n1592236800.12,1,2,3,4\n"
	require.NoError(t, afero.WriteFile(fs, "samples.csv", []byte(existing), 0644))

	writer := NewSampleWriterWithFs(fs, "samples.csv")
	require.NoError(t, writer.Append(makeSample(t, time.Unix(1600000000, 0),
		semaphores.Record{Owner: "root", Count: 9})))

	data, err := afero.ReadFile(fs, "samples.csv")
	require.NoError(t, err)
	assert.Equal(t, existing+"1600000000.000000,0,0,9,32000\n", string(data))
}

func TestOsFilesystem(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "db2andsyssems.csv")

	for i := 0; i < 3; i++ {
		writer := NewSampleWriter(filename)
		require.NoError(t, writer.Append(makeSample(t, time.Unix(1600000000, 0))))
	}

	lines := vtesting.Lines(string(vtesting.ReadFile(t, filename)))
	assert.Len(t, lines, 4)
}
