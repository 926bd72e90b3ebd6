package entities

// LaunchData identifies the record-store endpoint of the running activity.
type LaunchData struct {
	Key     string `json:"xAPILaunchKey"`
	Service string `json:"xAPILaunchService"`
}

func (l LaunchData) Complete() bool {
	return l.Key != "" && l.Service != ""
}

// AssessmentMeta optionally groups submitted answers under an assessment.
type AssessmentMeta struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// SubmitResult is the outcome of a direct submission.
type SubmitResult struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Submitted int    `json:"submitted,omitempty"`
}
