package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// TrainingStartedData contains data for TrainingStarted events
type TrainingStartedData struct {
	JobID      string `json:"job_id"`
	Samples    int    `json:"samples"`
	Features   int    `json:"features"`
	Parameters int    `json:"parameters,omitempty"`
}

// EventType returns the event type for TrainingStartedData
func (d *TrainingStartedData) EventType() EventType {
	return TrainingStarted
}

// TrainingProgressData contains data for TrainingProgress events.
// SmoothedCost is an exponential moving average of recent costs.
type TrainingProgressData struct {
	JobID         string  `json:"job_id"`
	Iteration     int     `json:"iteration"`
	MaxIterations int     `json:"max_iterations"`
	Evaluations   int     `json:"evaluations"`
	Cost          float64 `json:"cost"`
	SmoothedCost  float64 `json:"smoothed_cost"`
}

// EventType returns the event type for TrainingProgressData
func (d *TrainingProgressData) EventType() EventType {
	return TrainingProgress
}

// TrainingCompletedData contains data for TrainingCompleted events
type TrainingCompletedData struct {
	JobID       string  `json:"job_id"`
	ModelID     string  `json:"model_id"`
	InitialCost float64 `json:"initial_cost"`
	FinalCost   float64 `json:"final_cost"`
	Iterations  int     `json:"iterations"`
	Duration    float64 `json:"duration"` // seconds
}

// EventType returns the event type for TrainingCompletedData
func (d *TrainingCompletedData) EventType() EventType {
	return TrainingCompleted
}

// TrainingFailedData contains data for TrainingFailed events
type TrainingFailedData struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

// EventType returns the event type for TrainingFailedData
func (d *TrainingFailedData) EventType() EventType {
	return TrainingFailed
}

// ModelDeletedData contains data for ModelDeleted events
type ModelDeletedData struct {
	ModelID string `json:"model_id"`
}

// EventType returns the event type for ModelDeletedData
func (d *ModelDeletedData) EventType() EventType {
	return ModelDeleted
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
	Pruned    int    `json:"pruned"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// SystemStatusData contains data for SystemStatus events
type SystemStatusData struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	QueuedJobs    int     `json:"queued_jobs"`
	RunningJobs   int     `json:"running_jobs"`
}

// EventType returns the event type for SystemStatusData
func (d *SystemStatusData) EventType() EventType {
	return SystemStatus
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
