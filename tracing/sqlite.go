package tracing

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/emulab/tempo/timing"
)

// SQLiteTraceWriter stores fire records in a SQLite database.
type SQLiteTraceWriter struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	records   []FireRecord
	batchSize int
}

// NewSQLiteTraceWriter creates a new SQLiteTraceWriter.
func NewSQLiteTraceWriter(path string) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		dbName:    path,
		batchSize: 100000,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// Init establishes a connection to the database and prepares the schema.
func (t *SQLiteTraceWriter) Init() {
	t.createDatabase()
	t.createTable()
	t.prepareStatement()
}

// RecordFire buffers one fire record for insertion.
func (t *SQLiteTraceWriter) RecordFire(r FireRecord) {
	t.records = append(t.records, r)
	if len(t.records) >= t.batchSize {
		t.Flush()
	}
}

// Flush writes all the buffered records to the database.
func (t *SQLiteTraceWriter) Flush() {
	if len(t.records) == 0 {
		return
	}

	t.mustExecute("BEGIN TRANSACTION")
	defer t.mustExecute("COMMIT TRANSACTION")

	for _, r := range t.records {
		_, err := t.statement.Exec(
			r.ID,
			r.Machine,
			r.Owner,
			r.Tag,
			uint64(r.Time),
		)
		if err != nil {
			panic(err)
		}
	}

	t.records = nil
}

func (t *SQLiteTraceWriter) createDatabase() {
	if t.dbName == "" {
		t.dbName = "tempo_trace_" + xid.New().String()
	}

	filename := t.dbName + ".sqlite3"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	t.DB = db
}

func (t *SQLiteTraceWriter) createTable() {
	t.mustExecute(`
		create table fires
		(
			fire_id varchar(200) not null,
			machine varchar(200) not null,
			owner   varchar(200) not null,
			tag     integer      not null,
			time    integer      not null
		);
	`)

	t.mustExecute(`
		create index fires_time_index
			on fires (time);
	`)

	t.mustExecute(`
		create index fires_owner_index
			on fires (owner);
	`)
}

func (t *SQLiteTraceWriter) prepareStatement() {
	sqlStr := `INSERT INTO fires VALUES (?, ?, ?, ?, ?)`

	stmt, err := t.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	t.statement = stmt
}

func (t *SQLiteTraceWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		panic(err)
	}

	return res
}

// SQLiteTraceReader reads fire records back from a SQLite trace database.
type SQLiteTraceReader struct {
	*sql.DB

	filename string
}

// NewSQLiteTraceReader creates a new SQLiteTraceReader.
func NewSQLiteTraceReader(filename string) *SQLiteTraceReader {
	return &SQLiteTraceReader{
		filename: filename,
	}
}

// Init establishes a connection to the database.
func (r *SQLiteTraceReader) Init() {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		panic(err)
	}

	r.DB = db
}

// ListOwners returns the distinct devices that appear in the trace.
func (r *SQLiteTraceReader) ListOwners() []string {
	var owners []string

	rows, err := r.Query("SELECT DISTINCT owner FROM fires")
	if err != nil {
		panic(err)
	}
	defer func() {
		err := rows.Close()
		if err != nil {
			panic(err)
		}
	}()

	for rows.Next() {
		var owner string

		err := rows.Scan(&owner)
		if err != nil {
			panic(err)
		}

		owners = append(owners, owner)
	}

	return owners
}

// FireQuery filters ListFires. Zero fields do not filter.
type FireQuery struct {
	Owner  string
	Tag    int
	HasTag bool

	EnableTimeRange    bool
	StartTime, EndTime uint64
}

// ListFires returns the fire records matching the query, in fire order.
func (r *SQLiteTraceReader) ListFires(query FireQuery) []FireRecord {
	sqlStr := r.prepareFireQueryStr(query)

	rows, err := r.Query(sqlStr)
	if err != nil {
		panic(err)
	}
	defer func() {
		err := rows.Close()
		if err != nil {
			panic(err)
		}
	}()

	records := []FireRecord{}

	for rows.Next() {
		rec := FireRecord{}

		var time uint64

		err := rows.Scan(&rec.ID, &rec.Machine, &rec.Owner, &rec.Tag, &time)
		if err != nil {
			panic(err)
		}

		rec.Time = timing.VirtualTime(time)
		records = append(records, rec)
	}

	return records
}

func (r *SQLiteTraceReader) prepareFireQueryStr(query FireQuery) string {
	sqlStr := `
		SELECT
			fire_id,
			machine,
			owner,
			tag,
			time
		FROM fires
		WHERE 1=1
	`

	if query.Owner != "" {
		sqlStr += `
			AND owner = '` + query.Owner + `'
		`
	}

	if query.HasTag {
		sqlStr += fmt.Sprintf(`
			AND tag = %d
		`, query.Tag)
	}

	if query.EnableTimeRange {
		sqlStr += fmt.Sprintf(
			"AND time BETWEEN %d AND %d",
			query.StartTime,
			query.EndTime)
	}

	sqlStr += `
		ORDER BY rowid
	`

	return sqlStr
}
