package appcontext

import (
	"office-portal/internal/auth"
	"office-portal/internal/config"
	"office-portal/internal/dashboard"
	"office-portal/internal/storage"
	"office-portal/internal/workflow"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Context хранит зависимости обработчиков; собирается один раз при старте.
type Context struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger

	Auth      *auth.Authenticator
	Uploads   *storage.Uploads
	Workflow  *workflow.Service
	Dashboard *dashboard.Aggregator

	// HTML-шаблоны загружены; иначе ответы отдаются в JSON
	Templates bool
}
