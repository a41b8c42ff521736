package domain

import "fmt"

// ServerNotFoundError indicates a lookup missed.
type ServerNotFoundError struct {
	SourceURL string
	ServerID  int64
}

func (e *ServerNotFoundError) Error() string {
	if e.SourceURL != "" {
		return fmt.Sprintf("server not found: %s", e.SourceURL)
	}
	return fmt.Sprintf("server not found: id %d", e.ServerID)
}
