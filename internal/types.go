package internal

// TableShape tags a raw table with the adapter it needs. The shape is
// decided once at ingestion, not re-sniffed per row.
type TableShape string

const (
	ShapeWideMatrix    TableShape = "wide_matrix"
	ShapeNarrowColumns TableShape = "narrow_columns"
)

// RawTable is an untyped table as delivered by a source adapter. HeaderRows
// holds one entry per header line; multi-level headers keep their fragments
// separate so the normalizer can flatten them column-wise.
type RawTable struct {
	Source     string
	HeaderRows [][]string
	Rows       [][]string
}

// CutoffRecord is the canonical long-format unit every source converges on.
// CutoffRank is the rank of the last candidate admitted in the previous
// round; always a positive integer once normalized.
type CutoffRecord struct {
	Course      string `json:"course"`
	CollegeCode string `json:"college_code,omitempty"`
	CollegeName string `json:"college_name,omitempty"`
	Branch      string `json:"branch"`
	Category    string `json:"category"`
	CutoffRank  int    `json:"cutoff_rank"`
}

// SourceRow mirrors a row of the sources table: one admission list that was
// ingested, either a file on disk or a mail attachment written to disk.
type SourceRow struct {
	ID         int
	Name       string
	Course     string
	Shape      string
	Hash       string
	Status     string
	PathRef    string
	RecordedAt string
}

// CircularRow mirrors a row of the circulars table: one raw admission-board
// email whose attachments may carry cutoff lists.
type CircularRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
