package contract

import (
	"context"
	"io"
)

// ArtifactID: 夹具文件标识（与 FileID 同一表示）。
type ArtifactID = FileID

// Writer: 将夹具文档字节持久化到目标介质。
// 约束：
//  1. 同一 ArtifactID 单写者；
//  2. 无条件覆盖已有目标，不创建目标目录；
//  3. 失败时不留下部分写入的目标文件；
//  4. 错误直接上抛，保留底层原因（不做重试/回退）。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}
