package collibrasync

import "fmt"

type HealthStatus string

const (
	StatusHealthy HealthStatus = "Healthy"
	StatusWarning HealthStatus = "Warning"
	StatusIssue   HealthStatus = "Issue"
)

// StatusOf ranks an ongoing incident above a closed one.
func StatusOf(incidentCount, ongoingIncidentCount int) HealthStatus {
	switch {
	case incidentCount == 0:
		return StatusHealthy
	case ongoingIncidentCount == 0:
		return StatusWarning
	default:
		return StatusIssue
	}
}

func (s HealthStatus) Color() string {
	switch s {
	case StatusWarning:
		return "orange"
	case StatusIssue:
		return "red"
	default:
		return "green"
	}
}

// Badge renders the status as the rich text shown on the catalog asset.
func (s HealthStatus) Badge() string {
	return fmt.Sprintf(`<div style="background-color: %s; width: 100.0px; padding: 3.0px; text-align: center; color: white; font-weight: bold;">%s</div>`, s.Color(), s)
}

func viewLink(url string) string {
	return fmt.Sprintf(`<a href="%s" target="_blank">View</a>`, url)
}
