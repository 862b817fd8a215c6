package comicsource

// Phase identifies the current stage of a long-running open.
type Phase uint8

const (
	// PhaseOpening indicates the container file is being parsed.
	PhaseOpening Phase = iota

	// PhaseBuildingList indicates entries are being classified and sorted.
	PhaseBuildingList

	// PhaseExtracting indicates entry data is being decompressed, either
	// eagerly (7z) or for nested archives during composite building.
	PhaseExtracting

	// PhaseDone indicates the open has finished.
	PhaseDone
)

// String returns the human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseOpening:
		return "opening"
	case PhaseBuildingList:
		return "building image list"
	case PhaseExtracting:
		return "extracting"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// PhaseFunc receives phase transitions during Open. Within one open the
// phases arrive in order: opening, building image list, extracting (when
// data is decompressed eagerly), done.
type PhaseFunc func(Phase)
