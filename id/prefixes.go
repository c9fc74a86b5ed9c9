package id

// Prefix identifies which kind of Vigil record an ID names.
type Prefix string

// Prefixes for every record type Vigil creates.
const (
	PrefixDeadLetter Prefix = "dlq"
	PrefixScan       Prefix = "scan"
	PrefixReport     Prefix = "qrep"
)

// DeadLetterID names a dead letter entry ("dlq").
type DeadLetterID = ID

// ScanID names a stuck job scan run ("scan").
type ScanID = ID

// ReportID names a quota report ("qrep").
type ReportID = ID

// NewDeadLetterID generates a dead letter entry ID.
func NewDeadLetterID() ID { return New(PrefixDeadLetter) }

// NewScanID generates a scan run ID.
func NewScanID() ID { return New(PrefixScan) }

// NewReportID generates a quota report ID.
func NewReportID() ID { return New(PrefixReport) }

// ParseDeadLetterID parses s, rejecting any prefix but "dlq".
func ParseDeadLetterID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDeadLetter) }

// ParseScanID parses s, rejecting any prefix but "scan".
func ParseScanID(s string) (ID, error) { return ParseWithPrefix(s, PrefixScan) }

// ParseReportID parses s, rejecting any prefix but "qrep".
func ParseReportID(s string) (ID, error) { return ParseWithPrefix(s, PrefixReport) }
