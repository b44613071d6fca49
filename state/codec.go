package state

import (
	"encoding/json"
	"io"
)

// JSONCodec reads and writes machine snapshots as JSON.
type JSONCodec struct {
}

// NewJSONCodec returns a JSONCodec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Encode writes a snapshot to the writer.
func (c JSONCodec) Encode(st MachineState, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)

	return encoder.Encode(st)
}

// Decode reads a snapshot from the reader.
func (c JSONCodec) Decode(reader io.Reader) (MachineState, error) {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	st := MachineState{}

	err := decoder.Decode(&st)
	if err != nil {
		return MachineState{}, err
	}

	return st, nil
}
