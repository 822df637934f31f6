package status

import "fmt"

// Status texts shown to controls.
const (
	Loaded          = "Subtitles loaded"
	NotLoaded       = "No subtitles loaded"
	Cleared         = "Subtitles cleared"
	Failed          = "Failed to parse subtitles"
	Empty           = "Input data is empty"
	WaitSync        = "Wait for synchronization to finish"
	Fetching        = "Loading subtitles from URL..."
	FetchFailed     = "Failed to load subtitles from URL"
	Interrupted     = "Synchronization interrupted"
	LocalIndicator  = "(local)"
	ArrowSending    = "▲"
	ArrowReceiving  = "▼"
	ActionSync      = "synchronize subtitles"
	ActionAdd       = "add subtitles"
	ActionClear     = "clear subtitles"
	ActionLock      = "lock controls"
	ActionLoadURL   = "load subtitles from URL"
	PlaceholderText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."
)

// Parsing reports parse progress.
func Parsing(percent int) string {
	return fmt.Sprintf("Parsing... (%d%%)", percent)
}

// OnlyOwner explains why an action was refused.
func OnlyOwner(owner, action string) string {
	return fmt.Sprintf("Only %s can %s", owner, action)
}

// Synchronizing reports transfer progress. done counts finished chunks.
func Synchronizing(done, total int, sending bool) string {
	arrow := ArrowReceiving
	if sending {
		arrow = ArrowSending
	}
	return fmt.Sprintf("Synchronizing %d / %d %s", done, total, arrow)
}

// OwnerLabel formats the owner field, marking local mode.
func OwnerLabel(name string, local bool) string {
	if local {
		return name + " " + LocalIndicator
	}
	return name
}
