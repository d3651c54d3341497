package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
)

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Logging: Logging{Level: "info"},
		G2P:     "misaki",
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOptional 读取 path；文件不存在时返回 Defaults()，其余错误原样返回。
// 返回值 found 表示是否读取到了文件。
func LoadOptional(path string) (cfg Config, found bool, err error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), false, nil
		}
		return Config{}, false, err
	}
	over, err := LoadJSON(path, nil)
	if err != nil {
		return Config{}, true, err
	}
	return Merge(Defaults(), over), true, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if lv := strings.TrimSpace(over.Logging.Level); lv != "" {
		out.Logging.Level = lv
	}
	if name := strings.TrimSpace(over.G2P); name != "" {
		out.G2P = name
	}
	// Backends（完整替换对应键）
	if len(over.Backends) > 0 {
		merged := make(map[string]json.RawMessage, len(base.Backends)+len(over.Backends))
		for k, v := range base.Backends {
			merged[k] = cloneRaw(v)
		}
		for k, v := range over.Backends {
			merged[k] = cloneRaw(v)
		}
		out.Backends = merged
	}
	if len(over.Writer) > 0 {
		out.Writer = cloneRaw(over.Writer)
	}
	return out
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
