package events

import (
	"strings"

	"reolink-sync/storage"
)

// Trigger categories downstream automations can filter recording-updated
// events by.
const (
	TriggerRecordingUpdated = "recording_updated"
	TriggerVehicleDetected  = "vehicle_detected"
	TriggerPersonDetected   = "person_detected"
	TriggerMotionDetected   = "motion_detected"
)

// TriggerTypes lists every supported trigger category.
var TriggerTypes = []string{
	TriggerRecordingUpdated,
	TriggerVehicleDetected,
	TriggerPersonDetected,
	TriggerMotionDetected,
}

// Matches reports whether an event for eventCamera with the given event
// type fires a trigger of triggerType configured for wantCamera. Camera
// names are normalized before comparison because stored identifiers use
// underscores while events carry display names. Event types match by
// substring; the motion category deliberately excludes vehicle and person
// events so those fire only their specific triggers.
func Matches(triggerType, wantCamera, eventCamera, eventType string) bool {
	if storage.Slug(eventCamera) != storage.Slug(wantCamera) {
		return false
	}

	et := strings.ToLower(eventType)
	switch triggerType {
	case TriggerRecordingUpdated:
		return true
	case TriggerVehicleDetected:
		return strings.Contains(et, "vehicle")
	case TriggerPersonDetected:
		return strings.Contains(et, "person")
	case TriggerMotionDetected:
		if strings.Contains(et, "vehicle") || strings.Contains(et, "person") {
			return false
		}
		return strings.Contains(et, "motion")
	default:
		return false
	}
}
