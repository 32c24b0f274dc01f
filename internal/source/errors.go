package source

import "fmt"

// UnavailableError reports that the repository host could not serve a
// request: a transport failure, a timeout, or a non-2xx status. It is
// recoverable; the pipeline halts for the current run only.
type UnavailableError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source: %s unavailable: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("source: %s unavailable: status %d", e.URL, e.StatusCode)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
