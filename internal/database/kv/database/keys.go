package database

import "fmt"

const (
	KeyCurrentEvent         = "currentEvent"
	KeyOfflineQueue         = "offlineQueue"
	KeyOfflineQueueCorrupt  = "offlineQueue_corrupt" // last queue that could not be decoded
	KeySelectedOrganization = "selectedOrganization"
	KeySelectedDepartment   = "selectedDepartment"
)

// TeamKey is the key of the team joined for an event on this device.
func TeamKey(eventID int64) string {
	return fmt.Sprintf("team_%d", eventID)
}

// VotesKey is the key of the questions already voted on in an event.
func VotesKey(eventID int64) string {
	return fmt.Sprintf("votes_%d", eventID)
}
