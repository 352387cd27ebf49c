package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unibeninterns/server2-v2-sub000/config"
	"github.com/unibeninterns/server2-v2-sub000/internal/api/handler"
	"github.com/unibeninterns/server2-v2-sub000/internal/api/middleware"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/pkg/jwt"
	"github.com/unibeninterns/server2-v2-sub000/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口带限流）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 申请人注册（无需认证）
		v1.POST("/users/researchers", middleware.RateLimit(rdb, 5, time.Minute), h.User.RegisterResearcher)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块（管理员）
			users := authorized.Group("/users")
			{
				users.POST("/reviewers", adminOnly, h.User.InviteReviewer)
				users.GET("/:id", adminOnly, h.User.GetUser)
				users.DELETE("/:id", adminOnly, h.User.DeactivateUser)
			}

			// 学院模块
			faculties := authorized.Group("/faculties")
			{
				faculties.GET("", h.Faculty.List)
				faculties.GET("/:id", h.Faculty.Get)
				faculties.GET("/:id/peers", h.Faculty.Peers)
			}

			// 申请书模块
			proposals := authorized.Group("/proposals")
			{
				proposals.POST("", middleware.RoleAuth(model.RoleResearcher), h.Proposal.Submit)
				proposals.GET("", middleware.RoleAuth(model.RoleResearcher), h.Proposal.ListMine)
				proposals.GET("/:id", h.Proposal.Get)
				proposals.POST("/:id/archive", adminOnly, h.Proposal.Archive)

				// 评审流程（管理员）
				proposals.POST("/:id/assign", adminOnly, h.Proposal.AssignReviewers)
				// 分歧检测会在判定成立时创建调解评审（有副作用），故用 POST
			proposals.POST("/:id/discrepancy-check", adminOnly, h.Review.CheckDiscrepancy)
				proposals.POST("/:id/reconciliation/reassign", adminOnly, h.Review.ReassignReconciliation)

				// 资助
				proposals.GET("/:id/award", h.Award.Get)
				proposals.POST("/:id/award/decision", adminOnly, h.Award.Decide)

				// 导出（管理员）
				proposals.GET("/:id/export", adminOnly, h.Export.ProposalReviews)
			}

			// 评审模块
			reviews := authorized.Group("/reviews")
			{
				reviews.GET("", middleware.RoleAuth(model.RoleReviewer), h.Review.ListMine)
				reviews.GET("/calendar.ics", middleware.RoleAuth(model.RoleReviewer), h.Review.Calendar)
				reviews.GET("/:id", h.Review.Get)
				reviews.POST("/:id/submit", middleware.RoleAuth(model.RoleReviewer), h.Review.Submit)
				reviews.POST("/:id/reassign", adminOnly, h.Review.Reassign)
			}

			// 运营模块（管理员）
			authorized.POST("/admin/sweep", adminOnly, h.Admin.RunSweep)
		}
	}

	return r
}
