package entities

// Traffic is one request or response observed in the page's background
// network activity.
type Traffic struct {
	URL      string
	Method   string
	Response bool
	Status   int
	Body     func() ([]byte, error) // nil for requests
}
