package ccf

// ProgressEvent represents a progress update during encoding or extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Index is the member's position in the archive.
	Index int

	// Name is the member being processed, as stored in the archive.
	Name string

	// DataSize is the member's stored size.
	DataSize uint32

	// FileSize is the member's restored size.
	FileSize uint32

	// MembersDone is the number of members completed in this stage.
	MembersDone int

	// MembersTotal is the total number of members.
	MembersTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for encoding and extraction.
const (
	// StageCompressing indicates a member has been run through the
	// compression service.
	StageCompressing ProgressStage = iota

	// StageWriting indicates a member has been placed in the archive layout.
	StageWriting

	// StageExtracting indicates a member has been restored and written to
	// its destination.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageCompressing:
		return "compressing"
	case StageWriting:
		return "writing"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
