package contract

import (
	"context"
	"errors"
)

// G2POptions: 构造 G2P 实例所需的变体选项。
// 约束：
//  1. Transformer 必须为 false（生成夹具要求确定性后端）；
//  2. Fallback 必须为 FallbackNone（不静默猜测）。
type G2POptions struct {
	Dialect     Dialect
	Transformer bool
	Fallback    Fallback
}

// Validate 校验变体选项是否满足生成夹具的最小约束。
func (o G2POptions) Validate() error {
	if !o.Dialect.Valid() {
		return ErrInvalidInput
	}
	if o.Transformer {
		return ErrInvalidInput
	}
	if o.Fallback != FallbackNone {
		return ErrInvalidInput
	}
	return nil
}

// G2P: 字素到音素转换协作者。
// 约束：
//  1. 每个变体构造一次，供该变体全部样本复用；
//  2. 同步调用、不在内部起并发；对固定配置与输入结果确定；
//  3. 错误直接上抛（不做重试/回退）；
//  4. 用毕由调用方 Close 释放后端资源。
type G2P interface {
	Phonemize(ctx context.Context, text string) (Result, error)
	Close() error
}

// 最小错误分类（用于上层策略判定与日志分类）。
var (
	// ErrUnresolved: 后端在 fallback=none 下无法解析某个词。
	ErrUnresolved = errors.New("g2p: unresolved token")
	// ErrPhonemesEmpty: 非空输入得到空音素串。
	ErrPhonemesEmpty = errors.New("g2p: empty phonemes")
	// ErrBackendUnavailable: 后端进程/可执行文件不可用或意外退出。
	ErrBackendUnavailable = errors.New("g2p: backend unavailable")
	// ErrBackendFailed: 后端处理单个请求时报错（例如 Python 异常）。
	ErrBackendFailed = errors.New("g2p: backend failed")
	// ErrResponseInvalid: 后端响应无法解析。
	ErrResponseInvalid = errors.New("response invalid")
	// ErrInvalidInput: 参数或选项不合法。
	ErrInvalidInput = errors.New("invalid input")
)
