package router

import (
	"net/http"

	_ "github.com/3Eeeecho/go-testhub/docs"
	"github.com/3Eeeecho/go-testhub/internal/config"
	"github.com/3Eeeecho/go-testhub/internal/handlers"
	"github.com/3Eeeecho/go-testhub/internal/middlewares"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// InitRouter 注册全部路由
// /share/reports/:token 是唯一的公开业务路由,token 本身就是访问凭证
func InitRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	folderHandler *handlers.FolderHandler,
	caseHandler *handlers.TestCaseHandler,
	planHandler *handlers.PlanHandler,
	shareHandler *handlers.ShareHandler,
	reportHandler *handlers.ReportHandler,
	attachmentHandler *handlers.AttachmentHandler,
	cfg *config.Config,
) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default() // 包含 Logger 和 Recovery 中间件

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 公开报告路由,无需认证
	router.GET("/share/reports/:token", reportHandler.GetSharedReport)

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// 需要认证的路由组
		authenticated := v1.Group("/")
		authenticated.Use(middlewares.AuthMiddleware(cfg))

		// 用户相关路由
		userGroup := authenticated.Group("/users")
		{
			userGroup.GET("/me", userHandler.GetCurrentUser)
		}

		// 用例库:目录树
		folderGroup := authenticated.Group("/folders")
		{
			folderGroup.POST("", folderHandler.CreateFolder)
			folderGroup.GET("", folderHandler.ListFolders)
			folderGroup.GET("/:folder_id/path", folderHandler.GetFolderPath)
			folderGroup.POST("/:folder_id/rename", folderHandler.RenameFolder)
			folderGroup.POST("/:folder_id/move", folderHandler.MoveFolder)
			folderGroup.DELETE("/:folder_id", folderHandler.DeleteFolder)
		}

		// 用例库:测试用例
		caseGroup := authenticated.Group("/cases")
		{
			caseGroup.POST("", caseHandler.CreateTestCase)
			caseGroup.GET("", caseHandler.ListTestCases)
			caseGroup.GET("/search", caseHandler.SearchTestCases)
			caseGroup.GET("/:case_id", caseHandler.GetTestCase)
			caseGroup.PUT("/:case_id", caseHandler.UpdateTestCase)
			caseGroup.DELETE("/:case_id", caseHandler.DeleteTestCase)
		}

		// 测试计划
		planGroup := authenticated.Group("/plans")
		{
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.GET("", planHandler.ListPlans)
			planGroup.GET("/:plan_id", planHandler.GetPlan)
			planGroup.PUT("/:plan_id/status", planHandler.UpdatePlanStatus)
			planGroup.DELETE("/:plan_id", planHandler.DeletePlan)
			planGroup.GET("/:plan_id/progress", planHandler.GetPlanProgress)

			planGroup.POST("/:plan_id/items", planHandler.AddPlanItem)
			planGroup.POST("/:plan_id/items/reorder", planHandler.ReorderPlanItems)
			planGroup.DELETE("/:plan_id/items/:item_id", planHandler.RemovePlanItem)
			planGroup.PUT("/:plan_id/items/:item_id/result", planHandler.RecordResult)

			// 分享链接挂在计划下创建和列出
			planGroup.POST("/:plan_id/shares", shareHandler.CreateShareLink)
			planGroup.GET("/:plan_id/shares", shareHandler.ListShareLinks)

			// 证据打包下载
			planGroup.GET("/:plan_id/evidence", attachmentHandler.DownloadPlanEvidence)
		}

		// 分享链接撤销
		shareGroup := authenticated.Group("/shares")
		{
			shareGroup.POST("/:share_id/revoke", shareHandler.RevokeShareLink)
		}

		// 执行证据附件
		itemGroup := authenticated.Group("/items")
		{
			itemGroup.POST("/:item_id/attachments", attachmentHandler.UploadAttachment)
			itemGroup.GET("/:item_id/attachments", attachmentHandler.ListAttachments)
		}
		attachmentGroup := authenticated.Group("/attachments")
		{
			attachmentGroup.GET("/:attachment_id/download", attachmentHandler.DownloadAttachment)
			attachmentGroup.DELETE("/:attachment_id", attachmentHandler.DeleteAttachment)
		}
	}

	return router
}
