package registry

import (
	"bytes"
	"encoding/json"
	"sort"

	"g2pfixture/pkg/contract"
	"g2pfixture/plugins/g2p/espeak"
	"g2pfixture/plugins/g2p/misaki"
	"g2pfixture/plugins/g2p/mock"
	wfs "g2pfixture/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewG2P 工厂签名：方言选项 + 原样 JSON 后端 Options。
// 每次调用产生一个独立实例，由调用方在变体结束时 Close。
type NewG2P func(opts contract.G2POptions, raw json.RawMessage) (contract.G2P, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// G2P 后端注册表（显式、零反射）。
var G2P = map[string]NewG2P{
	// misaki: 常驻 Python 子进程，调用 misaki.en.G2P
	"misaki": func(opts contract.G2POptions, raw json.RawMessage) (contract.G2P, error) {
		if err := strictUnmarshal(raw, &misaki.Options{}); err != nil {
			return nil, err
		}
		c, err := misaki.New(opts, raw)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
	// espeak: 每样本一次 espeak-ng --ipa 调用
	"espeak": func(opts contract.G2POptions, raw json.RawMessage) (contract.G2P, error) {
		if err := strictUnmarshal(raw, &espeak.Options{}); err != nil {
			return nil, err
		}
		c, err := espeak.New(opts, raw)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
	// mock: 确定性替身，仅用于测试与离线调试
	"mock": func(opts contract.G2POptions, raw json.RawMessage) (contract.G2P, error) {
		if err := strictUnmarshal(raw, &mock.Options{}); err != nil {
			return nil, err
		}
		c, err := mock.New(opts, raw)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（原子替换，不创建目录）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		w, err := wfs.New(&opts)
		if err != nil {
			return nil, err
		}
		return w, nil
	},
}

// G2PNames 返回已注册后端名（排序），用于错误提示。
func G2PNames() []string {
	out := make([]string, 0, len(G2P))
	for k := range G2P {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
