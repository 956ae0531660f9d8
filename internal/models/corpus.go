package models

import "time"

// AppendedSeqStart is the first sequence number assigned to contributed corpus
// entries. The baseline dataset keeps its original small beam numbers, so the
// two numbering spaces never collide.
const AppendedSeqStart = 1000

// CorpusEntry is one sample of the training corpus. Baseline entries carry no
// submission reference; contributed entries point back at the approved
// submission they came from.
type CorpusEntry struct {
	Seq          int64     `db:"seq" json:"seq"`
	SubmissionID *string   `db:"submission_id" json:"submission_id,omitempty"`
	AddedAt      time.Time `db:"added_at" json:"added_at"`

	BeamSample
}

// Appended reports whether the entry was contributed after the baseline.
func (e *CorpusEntry) Appended() bool {
	return e.Seq >= AppendedSeqStart
}
