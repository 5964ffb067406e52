package app

import (
	"skill_assess_backend/docs"
	"skill_assess_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/", c.health.Info)

	a.registerPublicRoutes(router, c)
	a.registerTestRoutes(router, c)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}
}

func (a *App) registerTestRoutes(router *gin.Engine, c *controllers) {
	tests := router.Group("/api/tests")
	{
		tests.POST("/generate", c.test.GenerateTest)
		tests.POST("/grade", c.test.GradeTest)
		// static segment wins over :id
		tests.GET("/sample", c.test.SampleTest)
		tests.GET("/:id", c.test.GetTest)
	}
}
