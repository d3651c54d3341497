package contract

import "errors"

// 写出与通用不变量相关的哨兵错误。
var (
	// ErrPathInvalid: 目标文件标识不是输出目录内的合法文件名（绝对路径、'..' 逃逸等）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 运行期检测到的领域不变量违例，例如记录数与样本数不一致。
	ErrInvariantViolation = errors.New("invariant violation")
)
