package acceptance

import (
	"context"
	"net/http"

	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
)

func (s *Suite) TestHealthEndpoint() {
	resp, err := s.Backend.Health(context.Background())
	s.Require().NoError(err, "Failed to make request")

	s.Equal(http.StatusOK, resp.StatusCode, "Expected status 200")

	var health dto.HealthResponse
	s.Require().NoError(resp.JSON(&health))
	s.Equal("ok", health.Status)
}
