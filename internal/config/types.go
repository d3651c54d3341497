package config

import (
	"encoding/json"
)

// FileName: 工作目录下的可选配置文件名。
const FileName = "g2pfixture.json"

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
// 变体（方言、样本集、目标文件）与输出目录固定在代码中，不在此处配置。
type Config struct {
	Logging Logging `json:"logging"`

	// G2P: 后端名（注册表中的实现名）；空则使用默认 misaki。
	G2P string `json:"g2p"`

	// Backends: 各后端的原样 JSON Options，按后端名索引，原样传入工厂。
	Backends map[string]json.RawMessage `json:"backends"`

	// Writer: 文件 Writer 的可选项（atomic/perm_file/buf_size）；output_dir 由代码注入。
	Writer json.RawMessage `json:"writer"`
}

// Logging: 仅保留日志等级可配置；输出路径与轮转策略为固定默认。
type Logging struct {
	Level string `json:"level"`
}
