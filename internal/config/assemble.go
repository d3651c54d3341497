package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"g2pfixture/internal/pipeline"
	"g2pfixture/pkg/contract"
	"g2pfixture/pkg/registry"
)

var levels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if lv := strings.TrimSpace(cfg.Logging.Level); lv != "" && !levels[strings.ToLower(lv)] {
		return fmt.Errorf("config: logging.level %q must be one of debug|info|warn|error", lv)
	}
	name := effName(cfg.G2P, Defaults().G2P)
	if registry.G2P[name] == nil {
		return fmt.Errorf("config: g2p %q not registered (have %s)", name, strings.Join(registry.G2PNames(), ", "))
	}
	for k := range cfg.Backends {
		if registry.G2P[k] == nil {
			return fmt.Errorf("config: backends.%s: g2p %q not registered", k, k)
		}
	}
	if len(cfg.Writer) > 0 {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(cfg.Writer, &probe); err != nil {
			return fmt.Errorf("config: writer: %w", err)
		}
		if _, ok := probe["output_dir"]; ok {
			return fmt.Errorf("config: writer.output_dir is fixed to %s", pipeline.OutputDir)
		}
	}
	return nil
}

// Assemble 构造 pipeline.Components：G2P 工厂（每变体一次构造）与文件 Writer。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, err
	}
	name := effName(cfg.G2P, Defaults().G2P)
	newG2P := registry.G2P[name]
	raw := cloneRaw(cfg.Backends[name])

	wopts, err := writerOptions(cfg.Writer)
	if err != nil {
		return pipeline.Components{}, err
	}
	w, err := registry.Writer["fs"](wopts)
	if err != nil {
		return pipeline.Components{}, err
	}
	return pipeline.Components{
		Backend: name,
		NewG2P: func(opts contract.G2POptions) (contract.G2P, error) {
			return newG2P(opts, raw)
		},
		Writer: w,
	}, nil
}

// writerOptions 在用户给出的 writer 选项上注入固定的 output_dir。
func writerOptions(user json.RawMessage) (json.RawMessage, error) {
	m := map[string]json.RawMessage{}
	if len(user) > 0 {
		if err := json.Unmarshal(user, &m); err != nil {
			return nil, fmt.Errorf("config: writer: %w", err)
		}
	}
	dir, err := json.Marshal(pipeline.OutputDir)
	if err != nil {
		return nil, err
	}
	m["output_dir"] = dir
	return json.Marshal(m)
}

func effName(got, def string) string {
	if got = strings.TrimSpace(got); got == "" {
		return def
	}
	return got
}
