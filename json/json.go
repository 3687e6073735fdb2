// Wrap json library to control encoding.

package json

import (
	"bytes"
	"reflect"
	"sync"

	"github.com/Velocidex/json"
	"github.com/Velocidex/ordereddict"
)

var (
	mu       sync.Mutex
	encoders = make(map[reflect.Type]json.EncoderCallback)
)

// Registers an encoder for values of the same type as sample. Should
// be called from an init() function.
func RegisterCustomEncoder(sample interface{}, cb json.EncoderCallback) {
	mu.Lock()
	defer mu.Unlock()

	encoders[reflect.TypeOf(sample)] = cb
}

func NewEncOpts() *json.EncOpts {
	mu.Lock()
	defer mu.Unlock()

	opts := json.NewEncOpts()
	for t, cb := range encoders {
		opts.WithCallback(reflect.Zero(t).Interface(), cb)
	}
	return opts
}

// Dict values are encoded with the same options so registered
// encoders also apply inside rows.
func encodeDict(v interface{}, opts *json.EncOpts) ([]byte, error) {
	dict, ok := v.(*ordereddict.Dict)
	if !ok {
		return nil, json.EncoderCallbackSkip
	}

	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for idx, key := range dict.Keys() {
		if idx > 0 {
			buf.WriteByte(',')
		}

		serialized_key, err := json.MarshalWithOptions(key, opts)
		if err != nil {
			return nil, err
		}
		buf.Write(serialized_key)
		buf.WriteByte(':')

		value, _ := dict.Get(key)
		serialized, err := json.MarshalWithOptions(value, opts)
		if err != nil {
			serialized = []byte("null")
		}
		buf.Write(serialized)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func init() {
	RegisterCustomEncoder(ordereddict.NewDict(), encodeDict)
}

func Marshal(v interface{}) ([]byte, error) {
	return json.MarshalWithOptions(v, NewEncOpts())
}

func MustMarshalString(v interface{}) string {
	result, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(result)
}

// Indented with a single space, the layout of the golden fixtures.
func MarshalIndent(v interface{}) ([]byte, error) {
	serialized, err := Marshal(v)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	err = json.Indent(buf, serialized, "", " ")
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func MustMarshalIndent(v interface{}) []byte {
	result, err := MarshalIndent(v)
	if err != nil {
		panic(err)
	}
	return result
}

// One row per line.
func MarshalJsonl(rows []*ordereddict.Dict) ([]byte, error) {
	opts := NewEncOpts()

	out := &bytes.Buffer{}
	for _, row := range rows {
		serialized, err := json.MarshalWithOptions(row, opts)
		if err != nil {
			return nil, err
		}
		out.Write(serialized)
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

func Unmarshal(b []byte, v interface{}) error {
	return json.Unmarshal(b, v)
}
