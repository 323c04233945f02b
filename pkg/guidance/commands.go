// Package guidance turns steering decisions into short spoken commands and
// a visualizable path polyline.
package guidance

// Fixed command vocabulary. The announcement layer speaks actionable
// commands and treats status text as display-only.
const (
	CmdGoStraight         = "Go straight."
	CmdGoForward          = "Go forward."
	CmdGoForwardCarefully = "Go forward carefully."
	CmdPathBlocked        = "Path blocked. Go around."
	CmdCenter             = "Center."
	CmdArrived            = "Arrived."
	CmdTurnAround         = "Turn around."

	CmdSearching = "Searching for target..."
	CmdAnalyzing = "Analyzing floor..."
	CmdError     = "Navigation error"

	PrefixBlocked = "⚠️ Blocked! "
	PrefixCareful = "Careful. "
)

// IsStatus reports whether a command is a non-actionable status that must
// not be spoken repeatedly as a navigation instruction.
func IsStatus(cmd string) bool {
	switch cmd {
	case CmdSearching, CmdAnalyzing, CmdError, "":
		return true
	}
	return false
}

// Mode tags the guidance decision variant for one cycle. Exactly one mode
// applies per cycle; the coordinator dispatches on it once.
type Mode int

const (
	ModeSearching Mode = iota
	ModeOffScreen
	ModeOnScreen
	ModeArrived
)

// String returns the mode name for logs and the dashboard.
func (m Mode) String() string {
	switch m {
	case ModeSearching:
		return "searching"
	case ModeOffScreen:
		return "offscreen"
	case ModeOnScreen:
		return "onscreen"
	case ModeArrived:
		return "arrived"
	default:
		return "unknown"
	}
}

func side(v float64) string {
	if v < 0 {
		return "left"
	}
	return "right"
}

func bearCmd(v float64) string  { return "Bear " + side(v) + "." }
func turnCmd(v float64) string  { return "Turn " + side(v) + "." }
func sharpCmd(v float64) string { return "Sharp " + side(v) + "." }

// dangerPrefix returns the spoken prefix for a danger level.
func dangerPrefix(danger int) string {
	switch danger {
	case 2:
		return PrefixBlocked
	case 1:
		return PrefixCareful
	default:
		return ""
	}
}
