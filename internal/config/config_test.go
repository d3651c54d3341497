package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"g2pfixture/pkg/contract"
)

// UT-CFG-01: 解析完整配置
func TestLoadJSON(t *testing.T) {
	raw := []byte(`{
  "logging": {"level": "debug"},
  "g2p": "mock",
  "backends": {"mock": {"prefix": "x"}, "misaki": {"python": "/opt/venv/bin/python"}},
  "writer": {"atomic": true}
}`)
	cfg, err := LoadJSON("", raw)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.G2P)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.JSONEq(t, `{"python": "/opt/venv/bin/python"}`, string(cfg.Backends["misaki"]))
	require.NoError(t, Validate(cfg))
}

// UT-CFG-02: 未知字段拒绝
func TestLoadJSONUnknown(t *testing.T) {
	_, err := LoadJSON("", []byte(`{"variants":[]}`))
	assert.Error(t, err)
	_, err = LoadJSON("", nil)
	assert.Error(t, err)
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, found, err := LoadOptional(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Defaults(), cfg)

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"g2p":"espeak"}`), 0o644))
	cfg, found, err = LoadOptional(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "espeak", cfg.G2P)
	assert.Equal(t, "info", cfg.Logging.Level, "未给出的字段保留默认")

	require.NoError(t, os.WriteFile(path, []byte(`{"g2p":`), 0o644))
	_, found, err = LoadOptional(path)
	assert.Error(t, err)
	assert.True(t, found)
}

func TestMerge(t *testing.T) {
	base := Defaults()
	base.Backends = map[string]json.RawMessage{"misaki": json.RawMessage(`{"python":"a"}`)}
	over := Config{G2P: " mock ", Backends: map[string]json.RawMessage{"mock": json.RawMessage(`{}`)}}
	out := Merge(base, over)
	assert.Equal(t, "mock", out.G2P)
	assert.Equal(t, "info", out.Logging.Level)
	assert.Len(t, out.Backends, 2)

	src := json.RawMessage("abc")
	dst := cloneRaw(src)
	src[0] = 'x'
	assert.Equal(t, "abc", string(dst))
	assert.Nil(t, cloneRaw(nil))
}

// UT-CFG-03: 校验错误分支
func TestValidateErrors(t *testing.T) {
	assert.NoError(t, Validate(Config{}), "零值使用默认后端")

	cases := map[string]Config{
		"level":        {Logging: Logging{Level: "trace"}},
		"backend":      {G2P: "phonemizer"},
		"backends-key": {Backends: map[string]json.RawMessage{"openai": json.RawMessage(`{}`)}},
		"output-dir":   {Writer: json.RawMessage(`{"output_dir":"/tmp"}`)},
		"writer-json":  {Writer: json.RawMessage(`[1]`)},
	}
	for name, cfg := range cases {
		assert.Error(t, Validate(cfg), name)
	}
}

func TestAssembleMock(t *testing.T) {
	cfg := Merge(Defaults(), Config{
		G2P:      "mock",
		Backends: map[string]json.RawMessage{"mock": json.RawMessage(`{"prefix":"m"}`)},
		Writer:   json.RawMessage(`{"atomic":false}`),
	})
	comp, err := Assemble(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", comp.Backend)
	require.NotNil(t, comp.Writer)

	// 每次调用工厂得到独立实例
	a, err := comp.NewG2P(contract.G2POptions{Dialect: contract.DialectUS, Fallback: contract.FallbackNone})
	require.NoError(t, err)
	b, err := comp.NewG2P(contract.G2POptions{Dialect: contract.DialectGB, Fallback: contract.FallbackNone})
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	res, err := a.Phonemize(context.Background(), "Yeah")
	require.NoError(t, err)
	assert.Equal(t, "m:yeah", res.Phonemes)
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
}

func TestAssembleRejects(t *testing.T) {
	_, err := Assemble(Config{G2P: "nope"})
	assert.Error(t, err)
	_, err = Assemble(Config{G2P: "mock", Writer: json.RawMessage(`{"bogus":1}`)})
	assert.Error(t, err, "writer 未知字段在工厂层拒绝")
}

func TestWriterOptionsInjectsOutputDir(t *testing.T) {
	raw, err := writerOptions(json.RawMessage(`{"atomic":true}`))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "../com.github.asus4.kokoro-tts/Tests/Data", m["output_dir"])
	assert.Equal(t, true, m["atomic"])

	_, err = writerOptions(json.RawMessage(`[1,2]`))
	assert.Error(t, err, "非对象的 writer 选项不应被静默丢弃")
}
