package diag

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"g2pfixture/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeG2P       Code = "g2p"
	CodeProtocol  Code = "protocol"
	CodeInvariant Code = "invariant"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。
// 说明：仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	// 后端：无法解析、空音素、进程不可用
	if errors.Is(err, contract.ErrUnresolved) ||
		errors.Is(err, contract.ErrPhonemesEmpty) ||
		errors.Is(err, contract.ErrBackendUnavailable) ||
		errors.Is(err, contract.ErrBackendFailed) {
		return CodeG2P
	}
	var eerr *exec.Error
	if errors.As(err, &eerr) {
		return CodeG2P
	}
	if errors.Is(err, contract.ErrResponseInvalid) {
		return CodeProtocol
	}
	if errors.Is(err, contract.ErrInvariantViolation) ||
		errors.Is(err, contract.ErrInvalidInput) ||
		errors.Is(err, contract.ErrPathInvalid) {
		return CodeInvariant
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	var lerr *os.LinkError
	if errors.As(err, &lerr) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC 返回 RFC3339 UTC 时间字符串（用于结构化日志字段 ts）。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
