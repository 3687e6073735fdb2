package semaphores

import (
	"fmt"
	"strconv"
	"strings"

	"www.velocidex.com/golang/semwatch/utils"
)

// Describes a tabular listing of semaphore sets. Columns are located
// by header name when a header line is present, otherwise the default
// positions apply.
type tableLayout struct {
	name string

	key_column   string
	owner_column string
	count_column string

	// Positions used when no header is seen. A negative position
	// means a header is required.
	default_key   int
	default_owner int
	default_count int

	valid_key func(key string) bool
}

var ipcsLayout = tableLayout{
	name:          "ipcs",
	key_column:    "key",
	owner_column:  "owner",
	count_column:  "nsems",
	default_key:   0,
	default_owner: 2,
	default_count: 4,
	valid_key: func(key string) bool {
		if !strings.HasPrefix(key, "0x") {
			return false
		}
		_, err := strconv.ParseUint(key[2:], 16, 64)
		return err == nil
	},
}

type columns struct {
	key, owner, count int
	width             int
}

func (self tableLayout) defaultColumns() (columns, bool) {
	if self.default_key < 0 || self.default_owner < 0 || self.default_count < 0 {
		return columns{}, false
	}

	result := columns{
		key:   self.default_key,
		owner: self.default_owner,
		count: self.default_count,
	}
	result.width = maxInt(result.key, result.owner, result.count) + 1
	return result, true
}

// A header names both the owner and count columns.
func (self tableLayout) headerColumns(fields []string) (columns, bool) {
	result := columns{key: -1, owner: -1, count: -1, width: len(fields)}
	for idx, field := range fields {
		switch strings.ToLower(field) {
		case self.key_column:
			result.key = idx
		case self.owner_column:
			result.owner = idx
		case self.count_column:
			result.count = idx
		}
	}
	return result, result.owner >= 0 && result.count >= 0
}

func (self tableLayout) parseRow(fields []string, cols columns) (Record, bool) {
	if len(fields) < cols.width {
		return Record{}, false
	}

	if cols.key >= 0 && self.valid_key != nil && !self.valid_key(fields[cols.key]) {
		return Record{}, false
	}

	count, err := strconv.ParseUint(fields[cols.count], 10, 64)
	if err != nil {
		return Record{}, false
	}

	return Record{Owner: fields[cols.owner], Count: count}, true
}

// Lines before the table (banners, blank lines) are skipped. The
// table starts at a header line or, without a header, at the first
// data shaped row. Every non-empty line after that must be a data
// row. Output with text but no recognizable table is an error rather
// than an empty inventory.
func (self tableLayout) parse(text string) ([]Record, error) {
	result := []Record{}

	cols, have_defaults := self.defaultColumns()
	in_table := false

	// First skipped line that is not a section rule.
	unrecognized := ""

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if !in_table {
			header, ok := self.headerColumns(fields)
			if ok {
				cols = header
				in_table = true
				continue
			}

			if have_defaults {
				record, ok := self.parseRow(fields, cols)
				if ok {
					in_table = true
					result = append(result, record)
					continue
				}
			}

			if unrecognized == "" && !isRule(line) {
				unrecognized = strings.TrimSpace(line)
			}
			continue
		}

		record, ok := self.parseRow(fields, cols)
		if !ok {
			return nil, fmt.Errorf("%w: %v: unexpected row %q",
				utils.ExternalToolError, self.name, strings.TrimSpace(line))
		}
		result = append(result, record)
	}

	if !in_table && unrecognized != "" {
		return nil, fmt.Errorf("%w: %v: no semaphore table found near %q",
			utils.ExternalToolError, self.name, unrecognized)
	}

	return result, nil
}

// Section rules look like "------ Semaphore Arrays --------".
func isRule(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "--")
}

// ParseInventory parses the output of `ipcs -s`. When users are given
// only their sets are returned. Records are not coalesced.
func ParseInventory(text string, users ...string) ([]Record, error) {
	records, err := ipcsLayout.parse(text)
	if err != nil {
		return nil, err
	}
	return filterRecords(records, users), nil
}

func filterRecords(records []Record, users []string) []Record {
	if len(users) == 0 {
		return records
	}

	result := make([]Record, 0, len(records))
	for _, r := range records {
		if utils.InString(users, r.Owner) {
			result = append(result, r)
		}
	}
	return result
}

const ceilingLabel = "max semaphores system wide"

// ParseCeiling finds the system wide semaphore limit in the output of
// `ipcs -sl`.
func ParseCeiling(text string) (uint64, error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(line), ceilingLabel) {
			continue
		}

		parts := strings.Split(line, "=")
		if len(parts) < 2 {
			return 0, fmt.Errorf("%w: no value in %q", utils.ParseError, line)
		}

		value, err := strconv.ParseUint(
			strings.TrimSpace(parts[len(parts)-1]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid value in %q", utils.ParseError, line)
		}
		return value, nil
	}

	return 0, fmt.Errorf("%w: %q not found in limits output",
		utils.ParseError, ceilingLabel)
}

func maxInt(values ...int) int {
	result := values[0]
	for _, v := range values[1:] {
		if v > result {
			result = v
		}
	}
	return result
}
