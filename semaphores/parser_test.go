package semaphores

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"www.velocidex.com/golang/semwatch/utils"
)

const ipcsOutput = `
------ Semaphore Arrays --------
key        semid      owner      perms      nsems     
0x00000000 0          dbinst     600        5         
0x00000000 1          fmp        600        3         
0x0a0b0c0d 2          root       600        2         
0x00000000 3          dbinst     600        1         

`

const ipcsLimits = `
------ Semaphore Limits --------
max number of arrays = 32000
max semaphores per array = 32000
max semaphores system wide = 1024000000
max ops per semop call = 500
semaphore max value = 32767

`

type ParserTestSuite struct {
	suite.Suite
}

func (self *ParserTestSuite) TestInventory() {
	records, err := ParseInventory(ipcsOutput)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), []Record{
		{Owner: "dbinst", Count: 5},
		{Owner: "fmp", Count: 3},
		{Owner: "root", Count: 2},
		{Owner: "dbinst", Count: 1},
	}, records)
}

// A changed banner must not shift the data boundary.
func (self *ParserTestSuite) TestInventoryBannerChange() {
	text := `ipcs from util-linux 2.39
Some new banner line

------ Semaphore Arrays --------
key        semid      owner      perms      nsems
0x00000000 7          dbinst     600        4
`
	records, err := ParseInventory(text)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), []Record{{Owner: "dbinst", Count: 4}}, records)
}

func (self *ParserTestSuite) TestInventoryWithoutHeader() {
	text := `------ Semaphore Arrays --------
0x00000000 7          dbinst     600        4
0x00000000 8          1001       600        2
`
	records, err := ParseInventory(text)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), []Record{
		{Owner: "dbinst", Count: 4},
		{Owner: "1001", Count: 2},
	}, records)
}

func (self *ParserTestSuite) TestInventoryReorderedColumns() {
	text := `semid owner nsems key
7 dbinst 4 0x00000000
`
	records, err := ParseInventory(text)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), []Record{{Owner: "dbinst", Count: 4}}, records)
}

func (self *ParserTestSuite) TestInventoryEmpty() {
	text := `
------ Semaphore Arrays --------
key        semid      owner      perms      nsems     

`
	records, err := ParseInventory(text)
	require.NoError(self.T(), err)
	assert.Empty(self.T(), records)

	records, err = ParseInventory("")
	require.NoError(self.T(), err)
	assert.Empty(self.T(), records)
}

// AIX lists sets without an NSEMS column. This must not read as an
// empty inventory.
func (self *ParserTestSuite) TestInventoryUnknownShape() {
	text := `IPC status from /dev/mem as of Mon Oct 19 10:00:00 CDT 2026
T        ID     KEY        MODE       OWNER    GROUP
Semaphores:
s   1048576 0x58002281 --ra-------   db2inst1 db2iadm1
s   1048577 0x58002282 --ra-------   db2fenc1 db2fadm1
`
	records, err := ParseInventory(text)
	assert.ErrorIs(self.T(), err, utils.ExternalToolError)
	assert.Contains(self.T(), err.Error(), "IPC status from /dev/mem")
	assert.Nil(self.T(), records)

	// Banner text alone is not a table either.
	_, err = ParseInventory("ipcs: semaphores not configured\n")
	assert.ErrorIs(self.T(), err, utils.ExternalToolError)

	// Section rules by themselves are fine.
	records, err = ParseInventory("------ Semaphore Arrays --------\n")
	require.NoError(self.T(), err)
	assert.Empty(self.T(), records)
}

func (self *ParserTestSuite) TestInventoryMissingColumns() {
	text := `
------ Semaphore Arrays --------
key        semid      owner      perms      nsems
0x00000000 0          dbinst     600        5
0x00000000 1          fmp        600
`
	_, err := ParseInventory(text)
	assert.ErrorIs(self.T(), err, utils.ExternalToolError)
}

func (self *ParserTestSuite) TestInventoryBadCount() {
	text := `key        semid      owner      perms      nsems
0x00000000 0          dbinst     600        many
`
	_, err := ParseInventory(text)
	assert.ErrorIs(self.T(), err, utils.ExternalToolError)
}

func (self *ParserTestSuite) TestInventoryFilter() {
	records, err := ParseInventory(ipcsOutput, "dbinst")
	require.NoError(self.T(), err)
	assert.Equal(self.T(), []Record{
		{Owner: "dbinst", Count: 5},
		{Owner: "dbinst", Count: 1},
	}, records)

	records, err = ParseInventory(ipcsOutput, "nobody")
	require.NoError(self.T(), err)
	assert.Empty(self.T(), records)
}

func (self *ParserTestSuite) TestParsingIsIdempotent() {
	tracked := []Identity{
		{Role: PrimaryRole, User: "dbinst"},
		{Role: HelperRole, User: "fmp"},
	}

	first, err := ParseInventory(ipcsOutput)
	require.NoError(self.T(), err)
	first_tally, err := Aggregate(first, tracked...)
	require.NoError(self.T(), err)

	second, err := ParseInventory(ipcsOutput)
	require.NoError(self.T(), err)
	second_tally, err := Aggregate(second, tracked...)
	require.NoError(self.T(), err)

	assert.Equal(self.T(), first_tally, second_tally)
}

func (self *ParserTestSuite) TestCeiling() {
	ceiling, err := ParseCeiling(ipcsLimits)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), uint64(1024000000), ceiling)
}

func (self *ParserTestSuite) TestCeilingAbsent() {
	text := `
------ Semaphore Limits --------
max number of arrays = 32000
max semaphores per array = 32000
`
	_, err := ParseCeiling(text)
	assert.ErrorIs(self.T(), err, utils.ParseError)
}

func (self *ParserTestSuite) TestCeilingMalformed() {
	_, err := ParseCeiling("max semaphores system wide = lots\n")
	assert.ErrorIs(self.T(), err, utils.ParseError)

	_, err = ParseCeiling("max semaphores system wide\n")
	assert.ErrorIs(self.T(), err, utils.ParseError)
}

func TestParser(t *testing.T) {
	suite.Run(t, &ParserTestSuite{})
}
