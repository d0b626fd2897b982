package events

import "testing"

func TestMatches(t *testing.T) {
	cases := []struct {
		name        string
		triggerType string
		wantCamera  string
		eventCamera string
		eventType   string
		want        bool
	}{
		{"recording updated always fires", TriggerRecordingUpdated, "Driveway", "Driveway", "Person", true},
		{"vehicle matches vehicle", TriggerVehicleDetected, "Driveway", "Driveway", "Vehicle", true},
		{"vehicle ignores person", TriggerVehicleDetected, "Driveway", "Driveway", "Person", false},
		{"person matches person", TriggerPersonDetected, "Driveway", "Driveway", "Person", true},
		{"person matches combined label", TriggerPersonDetected, "Driveway", "Driveway", "Motion Person", true},
		{"motion matches plain motion", TriggerMotionDetected, "Driveway", "Driveway", "Motion", true},
		{"motion excludes person", TriggerMotionDetected, "Driveway", "Driveway", "Motion Person", false},
		{"motion excludes vehicle", TriggerMotionDetected, "Driveway", "Driveway", "Vehicle", false},
		{"camera mismatch", TriggerRecordingUpdated, "Driveway", "Backyard", "Person", false},
		{"slugged camera name matches display name", TriggerRecordingUpdated, "front_door", "Front Door", "Motion", true},
		{"case insensitive event type", TriggerPersonDetected, "Driveway", "Driveway", "PERSON", true},
		{"unknown trigger type", "doorbell_pressed", "Driveway", "Driveway", "Person", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Matches(tc.triggerType, tc.wantCamera, tc.eventCamera, tc.eventType)
			if got != tc.want {
				t.Errorf("Matches(%q, %q, %q, %q) = %v, want %v",
					tc.triggerType, tc.wantCamera, tc.eventCamera, tc.eventType, got, tc.want)
			}
		})
	}
}
