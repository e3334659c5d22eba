package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/departments-api/internal/apperror"
	"github.com/ErlanBelekov/departments-api/internal/token"
	"github.com/ErlanBelekov/departments-api/internal/transport/http/handler"
	"github.com/ErlanBelekov/departments-api/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, normalizer *apperror.Normalizer, tokens *token.Issuer, authHandler *handler.AuthHandler, departmentHandler *handler.DepartmentHandler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.Errors(normalizer))
	r.Use(middleware.Recovery())

	r.NoRoute(middleware.NoRoute)
	r.NoMethod(middleware.NoMethod)

	authMW := middleware.Auth(tokens, logger)

	r.POST("/auth/login", authHandler.Login)
	r.GET("/auth/me", authMW, authHandler.Me)

	// Protected department routes
	departments := r.Group("/departments", authMW)
	departments.POST("", departmentHandler.Create)
	departments.GET("", departmentHandler.List)
	departments.GET("/:id", departmentHandler.GetByID)
	departments.PUT("/:id", departmentHandler.Rename)
	departments.DELETE("/:id", departmentHandler.Delete)
	departments.POST("/:id/sub-departments", departmentHandler.CreateSubDepartment)
	departments.GET("/:id/sub-departments", departmentHandler.ListSubDepartments)

	// Protected sub-department routes
	subDepartments := r.Group("/sub-departments", authMW)
	subDepartments.GET("/:id", departmentHandler.GetSubDepartment)
	subDepartments.PUT("/:id", departmentHandler.RenameSubDepartment)
	subDepartments.DELETE("/:id", departmentHandler.DeleteSubDepartment)

	return r
}
