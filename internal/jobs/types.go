package jobs

import "encoding/json"

const TaskIngestWorkouts = "fitness:ingest"

type IngestWorkoutsPayload struct {
	Raw json.RawMessage `json:"raw"`
}
