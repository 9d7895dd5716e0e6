package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coursecraft/coursecraft-api/internal/domain"
)

func NewRouter(h *Handler, rl Limiter, corsOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Metrics())
	if corsOrigin != "" {
		r.Use(CORS(corsOrigin))
	}

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", RateLimit(rl), h.Register)
		auth.POST("/login", RateLimit(rl), h.Login)
		auth.POST("/google", RateLimit(rl), h.GoogleLogin)
		auth.GET("/google/redirect", h.GoogleRedirect)
		auth.GET("/google/callback", h.GoogleCallback)
		auth.GET("/me", h.Protect(), h.Me)
		auth.PUT("/updatedetails", h.Protect(), h.UpdateDetails)
		auth.PUT("/updatepassword", h.Protect(), h.UpdatePassword)
		auth.POST("/forgotpassword", RateLimit(rl), h.ForgotPassword)
		auth.PUT("/resetpassword/:token", RateLimit(rl), h.ResetPassword)
		auth.GET("/verifyemail/:token", h.VerifyEmail)
		auth.GET("/logout", h.Logout)
	}

	courses := v1.Group("/courses")
	{
		courses.POST("", h.GenerateCourse)
		courses.POST("/generate", h.GenerateCourse)
		courses.GET("/export/:id", h.ExportCourse)
	}

	admin := v1.Group("/admin", h.Protect(), h.Authorize(domain.RoleAdmin))
	{
		admin.GET("/users", h.ListUsers)
	}

	return r
}
