package exitcodes

// Exit codes for the spacefree CLI
// These codes form the operational contract with wrapper scripts and CI
const (
	Success        = 0 // Run completed with zero per-file failures
	PartialFailure = 1 // Run completed but one or more deletions failed
	InvalidConfig  = 2 // Configuration invalid (glob, size, parallelism, paths)
	Aborted        = 3 // User declined the confirmation prompt
	RuntimeError   = 4 // Runtime error outside the per-file taxonomy
)
