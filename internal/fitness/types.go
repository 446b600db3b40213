package fitness

import "time"

// Workout is a single normalized workout record. Decoding into this
// struct drops whatever extra fields the export app sends along.
type Workout struct {
	MaxHeartRate float64   `json:"maxHeartRate"`
	AvgHeartRate float64   `json:"avgHeartRate"`
	TotalEnergy  float64   `json:"totalEnergy"`
	ActiveEnergy float64   `json:"activeEnergy"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Name         string    `json:"name"`
	Intensity    string    `json:"intensity"`
}

// Batch is the envelope the export app posts.
type Batch struct {
	Data struct {
		Workouts []Workout `json:"workouts"`
	} `json:"data"`
}
