package ledger

// Ledger is the submission record consulted by ingestion. Consumers depend
// on this interface; *DB implements it.
type Ledger interface {
	RecordSubmitted(path, checksum, docID string) error
	RecordFailed(path, checksum string, cause error) error
	Checksum(path string) (string, error)
	DocID(path string) (string, error)
	Get(path string) (*Submission, error)
	Failed() ([]Submission, error)
	Close() error
}

var _ Ledger = (*DB)(nil)
