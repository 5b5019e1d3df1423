package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one record of an ingestion batch.
// Index is the record's position in the input stream.
type Result struct {
	index  int
	id     string
	pdfID  string
	status ItemStatus
	err    error
}

// NewOK creates a successful result for the document stored under id.
func NewOK(index int, id, pdfID string) Result {
	return Result{index: index, id: id, pdfID: pdfID, status: StatusOK}
}

// NewError creates a failed result. pdfID may be empty for records that had none.
func NewError(index int, pdfID string, err error) Result {
	return Result{index: index, pdfID: pdfID, status: StatusError, err: err}
}

// Index returns the record position in the input stream.
func (r Result) Index() int { return r.index }

// ID returns the stored document identity (empty on failure).
func (r Result) ID() string { return r.id }

// PDFID returns the source document identifier, if known.
func (r Result) PDFID() string { return r.pdfID }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary aggregates batch results.
type Summary struct {
	Indexed  int
	Failures []Result
}

// Summarize counts successes and collects failures in input order.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.status == StatusOK {
			s.Indexed++
			continue
		}
		s.Failures = append(s.Failures, r)
	}
	return s
}
