package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 错误分类：
//   - ARTIFACT_CONTRACT：产物契约违规（矩阵缺失/畸形、索引不连续、维度不匹配），只在装载时出现且致命
//   - INVALID_INPUT：请求本身不合法（种子数量、未知种子、强度越界）
//   - NOT_FOUND / UNAVAILABLE：协作方（store、feast）返回的错误
//
// 缺失信号、个性化不可用、空结果都不是错误。
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "ARTIFACT_CONTRACT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "artifact", "engine", "store"）
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// IsDomainError 检查错误链中是否有 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
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

// WrapDomainError 创建带底层原因的领域错误
func WrapDomainError(module, code, message string, cause error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound         = "NOT_FOUND"         // 资源不存在
	ErrorCodeNotSupported     = "NOT_SUPPORTED"     // 操作不支持
	ErrorCodeUnavailable      = "UNAVAILABLE"       // 服务不可用
	ErrorCodeInvalidInput     = "INVALID_INPUT"     // 输入无效
	ErrorCodeArtifactContract = "ARTIFACT_CONTRACT" // 产物契约违规
	ErrorCodeInternalError    = "INTERNAL_ERROR"    // 内部错误
)

// 模块名称常量
const (
	ModuleStore    = "store"
	ModuleArtifact = "artifact"
	ModuleCatalog  = "catalog"
	ModuleEngine   = "engine"
	ModuleFeast    = "feast"
	ModuleConfig   = "config"
)

// ArtifactViolation 创建一个产物契约违规错误。
func ArtifactViolation(format string, args ...any) *DomainError {
	return NewDomainError(ModuleArtifact, ErrorCodeArtifactContract, "artifact contract violation: "+fmt.Sprintf(format, args...))
}

// InvalidInput 创建一个请求无效错误。
func InvalidInput(format string, args ...any) *DomainError {
	return NewDomainError(ModuleEngine, ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsArtifactContractViolation 检查错误是否为产物契约违规
func IsArtifactContractViolation(err error) bool {
	return hasCode(err, ErrorCodeArtifactContract)
}
