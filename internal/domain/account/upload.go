package account

type UploadState string

const (
	UploadStateIdle      UploadState = "idle"
	UploadStateRunning   UploadState = "running"
	UploadStateCompleted UploadState = "completed"
	UploadStateAborted   UploadState = "aborted"
)

type WriteFailure struct {
	Index  int
	Reason string
}

type Outcome struct {
	Attempted int
	Succeeded int
	Failed    int
	Failures  []WriteFailure
}
