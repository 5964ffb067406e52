// @title Skill Assessment API
// @version 1.0
// @description Generates and grades programming skill assessments with an LLM, with built-in fallback questions.

// @host localhost:8080
// @BasePath /

package main

import (
	"flag"
	"log"
	"skill_assess_backend/internal/app"
	"skill_assess_backend/internal/config"
	"skill_assess_backend/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}
