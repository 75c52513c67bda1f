package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// CriteriaModulePrefix 招聘条件模块
	CriteriaModulePrefix = "criteria"

	// EntityText 文本实体
	EntityText = "text"

	// KeyCriteriaByTextMD5 按JD文本MD5缓存的招聘条件 (STRING, JSON数组)
	// 格式: app:criteria:text:{md5}
	KeyCriteriaByTextMD5 = AppPrefix + ":" + CriteriaModulePrefix + ":" + EntityText + ":%s"
)
