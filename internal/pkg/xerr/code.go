package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode         = 40000 // 无效的请求参数
	ValidationFailedCode      = 40001 // 参数验证失败
	InvalidResultCode         = 40002 // 非法的执行结果取值
	CannotMoveRootCode        = 40003 // 不能移动根目录
	CannotMoveIntoSubtreeCode = 40004 // 不能移动目录到其子目录下
	AttachmentTooLargeCode    = 40005 // 附件过大
	FolderDepthExceededCode   = 40006 // 目录层级超出限制

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 用户名或密码错误

	// --- 权限错误系列 (403xx) ---
	ForbiddenCode        = 40300 // 通用无权限
	PermissionDeniedCode = 40301 // 权限不足 (细分)

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode           = 40400 // 通用资源未找到
	UserNotFoundCode       = 40401 // 用户不存在
	FolderNotFoundCode     = 40402 // 文件夹不存在
	TestCaseNotFoundCode   = 40403 // 测试用例不存在
	PlanNotFoundCode       = 40404 // 测试计划不存在
	PlanItemNotFoundCode   = 40405 // 计划条目不存在
	ShareLinkNotFoundCode  = 40406 // 分享链接不存在
	AttachmentNotFoundCode = 40407 // 附件不存在

	// --- 业务逻辑冲突系列 (409xx) ---
	UserAlreadyExistsCode  = 40900 // 用户名已存在
	EmailAlreadyExistsCode = 40901 // 邮箱已存在
	FolderNotEmptyCode     = 40902 // 目录不为空，无法删除
	PlanHasShareLinksCode  = 40903 // 计划存在分享链接，无法删除
	ItemAlreadyInPlanCode  = 40904 // 用例已在计划中

	// --- 资源已失效系列 (410xx) ---
	// 区别于 404：曾经有效但不再可访问，前端展示不同文案
	ShareLinkGoneCode = 41000 // 分享链接已过期、已撤销或目标已不存在

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 存储服务操作失败（如MinIO）
	MQErrorCode             = 50003 // 消息队列操作失败
	SearchErrorCode         = 50004 // 搜索服务操作失败

	// --- 服务暂不可用系列 (503xx) ---
	TokenConflictCode = 50300 // 分享 token 冲突重试耗尽
)
