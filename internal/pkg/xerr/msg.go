package xerr

import "errors"

var (
	// 通用错误
	ErrSuccess        = errors.New("操作成功")
	ErrInternalServer = errors.New("服务器内部错误")

	// 客户端请求错误
	ErrInvalidParams         = errors.New("无效的请求参数")
	ErrValidationFailed      = errors.New("参数验证失败")
	ErrInvalidResult         = errors.New("非法的执行结果取值")
	ErrCannotMoveRoot        = errors.New("不能移动根目录")
	ErrCannotMoveIntoSubtree = errors.New("不能移动目录到其子目录下")
	ErrAttachmentTooLarge    = errors.New("上传附件过大，超出限制")
	ErrFolderDepthExceeded   = errors.New("目录层级超出限制")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("用户未授权")
	ErrTokenInvalid       = errors.New("认证 Token 无效或已过期")
	ErrInvalidCredentials = errors.New("用户名或密码不正确")
	ErrUserAlreadyExists  = errors.New("该用户名已被注册")
	ErrEmailAlreadyExists = errors.New("邮箱已被注册")

	// 权限错误
	ErrForbidden        = errors.New("禁止访问")
	ErrPermissionDenied = errors.New("您没有操作此资源的权限")

	// 资源未找到错误
	ErrUserNotFound       = errors.New("用户不存在")
	ErrFolderNotFound     = errors.New("文件夹不存在")
	ErrTestCaseNotFound   = errors.New("测试用例不存在")
	ErrPlanNotFound       = errors.New("测试计划不存在")
	ErrPlanItemNotFound   = errors.New("计划条目不存在")
	ErrShareLinkNotFound  = errors.New("分享链接不存在")
	ErrAttachmentNotFound = errors.New("附件不存在")

	// 业务逻辑冲突
	ErrFolderNotEmpty    = errors.New("目录不为空，无法删除")
	ErrPlanHasShareLinks = errors.New("计划存在分享链接，无法删除")
	ErrItemAlreadyInPlan = errors.New("用例已在该计划中")

	// 资源已失效：与"不存在"分开表示，不能合并
	ErrShareLinkGone = errors.New("分享链接已失效")

	// 数据库与外部服务错误
	ErrDatabaseError = errors.New("数据库操作失败")
	ErrStorageError  = errors.New("存储服务操作失败")
	ErrMQError       = errors.New("消息队列操作失败")
	ErrSearchError   = errors.New("搜索服务操作失败")

	// 分享 token 冲突，内部重试耗尽后才会向外暴露
	ErrTokenConflict = errors.New("分享链接生成冲突，请稍后重试")
)
