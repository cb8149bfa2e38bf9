package pipeline

// State is the run controller's position in the stage sequence. Every
// run walks the same path; any stage failure jumps to StateFailed,
// which is terminal and skips cleanup.
type State string

const (
	StateStart       State = "start"
	StateReset       State = "reset"
	StateDownloaded  State = "downloaded"
	StateTransformed State = "transformed"
	StateExported    State = "exported"
	StateCleaned     State = "cleaned"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// IsTerminal reports whether the run has finished, successfully or not.
func IsTerminal(s State) bool {
	return s == StateDone || s == StateFailed
}

// Stage names the unit of work that failed, for the run result and the
// process exit code.
type Stage string

const (
	StageWorkspace Stage = "workspace"
	StageDownload  Stage = "download"
	StageTransform Stage = "transform"
	StageExport    Stage = "export"
)

// exitCodes maps a failing stage to the process exit code, so the two
// invocation scripts can tell failure classes apart.
var exitCodes = map[Stage]int{
	StageDownload:  2,
	StageTransform: 3,
	StageExport:    4,
	StageWorkspace: 5,
}
