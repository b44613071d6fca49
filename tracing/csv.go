package tracing

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter stores fire records in a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	records    []FireRecord
	bufferSize int
}

// NewCSVTraceWriter creates a CSVTraceWriter.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the tracing CSV file. An existing file is not overwritten.
func (t *CSVTraceWriter) Init() {
	if t.path == "" {
		t.path = "tempo_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "ID, Machine, Owner, Tag, Time\n")

	atexit.Register(func() {
		t.Flush()

		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// RecordFire buffers one fire record.
func (t *CSVTraceWriter) RecordFire(r FireRecord) {
	t.records = append(t.records, r)
	if len(t.records) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered records to the CSV file.
func (t *CSVTraceWriter) Flush() {
	for _, r := range t.records {
		fmt.Fprintf(t.file, "%s, %s, %s, %d, %d\n",
			r.ID,
			r.Machine,
			r.Owner,
			r.Tag,
			uint64(r.Time),
		)
	}

	t.records = nil
}
