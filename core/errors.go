package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - 目录错误：UNKNOWN_BOOK（图书不在目录中）
//   - 模型错误：UNKNOWN_USER / UNKNOWN_ITEM（冷启动，内部降级标记）
//   - 内容索引错误：EMPTY_SEED_SET（CB 阶段无有效种子）
//   - 数据集错误：UNAVAILABLE（表未加载，依赖该表的操作降级）
type DomainError struct {
	Code    string // 错误代码（如 "UNKNOWN_BOOK", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "dataset", "cf", "content"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeUnknownBook  = "UNKNOWN_BOOK"   // 图书不在目录中
	ErrorCodeUnknownUser  = "UNKNOWN_USER"   // 用户不在训练集中（冷启动）
	ErrorCodeUnknownItem  = "UNKNOWN_ITEM"   // 物品不在训练集中（冷启动）
	ErrorCodeEmptySeeds   = "EMPTY_SEED_SET" // CB 阶段种子集为空
	ErrorCodeNotFound     = "NOT_FOUND"      // 资源不存在
	ErrorCodeUnavailable  = "UNAVAILABLE"    // 数据集/服务不可用
	ErrorCodeInvalidInput = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternal     = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleDataset = "dataset" // 目录存储模块
	ModuleCF      = "cf"      // 协同过滤模块
	ModuleContent = "content" // 内容相似度模块
	ModuleStore   = "store"   // 缓存存储模块
	ModuleFeature = "feature" // 特征模块
	ModuleEngine  = "engine"  // 级联引擎模块
)

func codeIs(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsUnknownBook 检查错误是否为 UNKNOWN_BOOK
func IsUnknownBook(err error) bool { return codeIs(err, ErrorCodeUnknownBook) }

// IsUnknownUser 检查错误是否为 UNKNOWN_USER
func IsUnknownUser(err error) bool { return codeIs(err, ErrorCodeUnknownUser) }

// IsUnknownItem 检查错误是否为 UNKNOWN_ITEM
func IsUnknownItem(err error) bool { return codeIs(err, ErrorCodeUnknownItem) }

// IsEmptySeedSet 检查错误是否为 EMPTY_SEED_SET
func IsEmptySeedSet(err error) bool { return codeIs(err, ErrorCodeEmptySeeds) }

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return codeIs(err, ErrorCodeNotFound) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return codeIs(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return codeIs(err, ErrorCodeInvalidInput) }
