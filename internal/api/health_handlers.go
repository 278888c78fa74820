package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, disabled, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"store":  s.checkStore(ctx),
		"search": s.checkSearchIndex(),
	}

	overall := "healthy"
	for _, c := range components {
		if c.Status == "unhealthy" {
			overall = "unhealthy"
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkStore verifies the document store answers.
func (s *Server) checkStore(ctx context.Context) ComponentHealth {
	start := time.Now()
	if err := s.notes.Ping(ctx); err != nil {
		s.logger.Error("store health check failed", "error", err)
		return ComponentHealth{Status: "unhealthy", Message: "store unreachable"}
	}
	return ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
}

// checkSearchIndex reports whether search is enabled and readable.
func (s *Server) checkSearchIndex() ComponentHealth {
	if !s.notes.SearchEnabled() {
		return ComponentHealth{Status: "disabled"}
	}
	start := time.Now()
	if _, err := s.notes.IndexedDocuments(); err != nil {
		s.logger.Error("search health check failed", "error", err)
		return ComponentHealth{Status: "unhealthy", Message: "index unreadable"}
	}
	return ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
}
