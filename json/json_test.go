package json

import (
	"strings"
	"testing"
	"time"

	"github.com/Velocidex/json"
	"github.com/Velocidex/ordereddict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"www.velocidex.com/golang/semwatch/semaphores"
)

func makeSample(t *testing.T, ts time.Time, records ...semaphores.Record) *ordereddict.Dict {
	tally, err := semaphores.Aggregate(records,
		semaphores.Identity{Role: semaphores.PrimaryRole, User: "dbinst"},
		semaphores.Identity{Role: semaphores.HelperRole, User: "fmp"})
	require.NoError(t, err)

	sample := &semaphores.Sample{Timestamp: ts, Tally: tally, Ceiling: 32000}
	return sample.ToDict()
}

func TestMarshalSample(t *testing.T) {
	sample := makeSample(t, time.Unix(1600000000, 0),
		semaphores.Record{Owner: "fmp", Count: 3},
		semaphores.Record{Owner: "root", Count: 1})

	assert.Equal(t, `{"Timestamp":"2020-09-13T12:26:40Z",`+
		`"Tally":{"primary":{"User":"dbinst","Count":0},`+
		`"helper":{"User":"fmp","Count":3},"system":1,`+
		`"Shared":false,"Total":4},"Ceiling":32000}`,
		MustMarshalString(sample))
}

func TestMarshalJsonl(t *testing.T) {
	samples := []*ordereddict.Dict{
		makeSample(t, time.Unix(1600000000, 0)),
		makeSample(t, time.Unix(1600000010, 0)),
	}

	serialized, err := MarshalJsonl(samples)
	require.NoError(t, err)

	var first map[string]interface{}
	lines := strings.Split(strings.TrimSpace(string(serialized)), "\n")
	require.Len(t, lines, 2)
	require.NoError(t, Unmarshal([]byte(lines[1]), &first))
	assert.Equal(t, "2020-09-13T12:26:50Z", first["Timestamp"])

	serialized, err = MarshalJsonl(nil)
	require.NoError(t, err)
	assert.Empty(t, serialized)
}

type secret struct{}

func TestCustomEncoder(t *testing.T) {
	RegisterCustomEncoder(&secret{},
		func(v interface{}, opts *json.EncOpts) ([]byte, error) {
			return []byte(`"***"`), nil
		})

	assert.Equal(t, `{"User":"db2inst1","Password":"***"}`,
		MustMarshalString(ordereddict.NewDict().
			Set("User", "db2inst1").
			Set("Password", &secret{})))
}
