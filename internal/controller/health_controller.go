package controller

import (
	"skill_assess_backend/internal/service"
	"skill_assess_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	Service *service.TestService
}

func NewHealthController(svc *service.TestService) *HealthController {
	return &HealthController{Service: svc}
}

// @Summary Health check
// @Description Probes the LLM. A degraded oracle still answers 200 since fallback content keeps the service usable.
// @Tags system
// @Produce json
// @Success 200 {object} util.Response{data=service.HealthStatus}
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	util.Success(ctx, c.Service.HealthCheck(ctx.Request.Context()))
}

// @Summary Service info
// @Tags system
// @Produce json
// @Success 200 {object} util.Response
// @Router / [get]
func (c *HealthController) Info(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"service":    "skill-assess",
		"status":     "running",
		"test_types": []string{"mcq", "code", "text"},
		"endpoints": gin.H{
			"generate": "POST /api/tests/generate",
			"grade":    "POST /api/tests/grade",
			"get":      "GET /api/tests/:id",
			"sample":   "GET /api/tests/sample?type=mcq",
			"health":   "GET /api/health",
		},
	})
}
