package reporting

import (
	"fmt"
	"io"

	"github.com/Velocidex/ordereddict"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"www.velocidex.com/golang/semwatch/constants"
	"www.velocidex.com/golang/semwatch/semaphores"
)

// One row per bucket, tracked roles first.
func TallyRows(sample *semaphores.Sample) []*ordereddict.Dict {
	result := []*ordereddict.Dict{}
	for _, b := range sample.Tally.Tracked {
		result = append(result, ordereddict.NewDict().
			Set("Bucket", string(b.Role)).
			Set("User", b.User).
			Set("Semaphores", b.Count))
	}

	return append(result, ordereddict.NewDict().
		Set("Bucket", constants.SYSTEM_BUCKET).
		Set("User", "").
		Set("Semaphores", sample.Tally.System))
}

func TallyTable(sample *semaphores.Sample, out io.Writer) *tablewriter.Table {
	table := OutputRowsToTable(TallyRows(sample), out)
	table.SetCaption(true, fmt.Sprintf("%s of %s semaphores in use",
		humanize.Comma(int64(sample.Tally.Total())),
		humanize.Comma(int64(sample.Ceiling))))
	return table
}

func OutputRowsToTable(rows []*ordereddict.Dict, out io.Writer) *tablewriter.Table {
	var columns []string

	table := tablewriter.NewWriter(out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, row := range rows {
		string_row := []string{}
		if columns == nil {
			columns = row.Keys()
			table.SetHeader(columns)
		}

		for _, key := range columns {
			cell := ""
			value, pres := row.Get(key)
			if pres && value != nil {
				cell = fmt.Sprintf("%v", value)
			}
			string_row = append(string_row, cell)
		}

		table.Append(string_row)
	}

	return table
}
