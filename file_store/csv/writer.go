package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"www.velocidex.com/golang/semwatch/constants"
	"www.velocidex.com/golang/semwatch/semaphores"
	"www.velocidex.com/golang/semwatch/utils"
)

// SampleSink receives one sample per sampling pass.
type SampleSink interface {
	Append(sample *semaphores.Sample) error
}

type SampleWriter struct {
	mu       sync.Mutex
	fs       afero.Fs
	filename string
}

func NewSampleWriter(filename string) *SampleWriter {
	return NewSampleWriterWithFs(afero.NewOsFs(), filename)
}

func NewSampleWriterWithFs(fs afero.Fs, filename string) *SampleWriter {
	return &SampleWriter{fs: fs, filename: filename}
}

func (self *SampleWriter) Filename() string {
	return self.filename
}

func (self *SampleWriter) Append(sample *semaphores.Sample) error {
	row, err := FormatRow(sample)
	if err != nil {
		return err
	}

	self.mu.Lock()
	defer self.mu.Unlock()

	fd, err := self.fs.OpenFile(self.filename,
		os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer fd.Close()

	stat, err := fd.Stat()
	if err != nil {
		return err
	}

	buffer := &bytes.Buffer{}
	w := csv.NewWriter(buffer)
	if stat.Size() == 0 {
		err = w.Write(Header())
		if err != nil {
			return err
		}
	}

	err = w.Write(row)
	if err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	_, err = fd.Write(buffer.Bytes())
	if err != nil {
		return err
	}

	return fd.Close()
}

func Header() []string {
	return strings.Split(constants.SAMPLE_LOG_HEADER, ",")
}

func FormatRow(sample *semaphores.Sample) ([]string, error) {
	if sample == nil || sample.Tally == nil {
		return nil, fmt.Errorf("%w: incomplete sample", utils.InvalidArgumentError)
	}

	return []string{
		FormatTimestamp(sample.Timestamp),
		strconv.FormatUint(sample.Tally.Primary(), 10),
		strconv.FormatUint(sample.Tally.Helper(), 10),
		strconv.FormatUint(sample.Tally.System, 10),
		strconv.FormatUint(sample.Ceiling, 10),
	}, nil
}

// Seconds since the epoch with microsecond precision.
func FormatTimestamp(ts time.Time) string {
	return fmt.Sprintf("%d.%06d", ts.Unix(), ts.Nanosecond()/1000)
}
