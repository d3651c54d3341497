package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"g2pfixture/pkg/contract"
)

// Options: 最小调试配置（可选）。
type Options struct {
	// Prefix: 音素串前缀；为空时使用方言名（如 "en-us"）。
	Prefix string `json:"prefix,omitempty"`
	// FailOn: 命中这些文本时返回 contract.ErrUnresolved（用于验证整体中止）。
	FailOn []string `json:"fail_on,omitempty"`
	// EmptyOn: 命中这些文本时返回空音素串。
	EmptyOn []string `json:"empty_on,omitempty"`
}

// Client 是确定性的 G2P 替身：
// 音素串 = Prefix + ":" + 小写并折叠空白后的文本；分词按空白切分。
type Client struct {
	prefix  string
	failOn  map[string]bool
	emptyOn map[string]bool
	calls   atomic.Int64
	closed  atomic.Bool
}

// New 构造 Client。
func New(opts contract.G2POptions, raw json.RawMessage) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	var o Options
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, err
		}
	}
	if o.Prefix == "" {
		o.Prefix = string(opts.Dialect)
	}
	c := &Client{prefix: o.Prefix, failOn: toSet(o.FailOn), emptyOn: toSet(o.EmptyOn)}
	return c, nil
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

var _ contract.G2P = (*Client)(nil)

// Phonemize 实现 contract.G2P。
func (c *Client) Phonemize(ctx context.Context, text string) (contract.Result, error) {
	if err := ctx.Err(); err != nil {
		return contract.Result{}, err
	}
	if c.closed.Load() {
		return contract.Result{}, contract.ErrBackendUnavailable
	}
	c.calls.Add(1)
	if c.failOn[text] {
		return contract.Result{}, fmt.Errorf("mock: %q: %w", text, contract.ErrUnresolved)
	}
	if c.emptyOn[text] {
		return contract.Result{}, nil
	}
	words := strings.Fields(text)
	toks := make([]contract.Token, 0, len(words))
	for _, w := range words {
		toks = append(toks, contract.Token{Text: w, Whitespace: " ", Phonemes: strings.ToLower(w)})
	}
	return contract.Result{
		Phonemes: c.prefix + ":" + strings.ToLower(strings.Join(words, " ")),
		Tokens:   toks,
	}, nil
}

// Calls 返回累计调用次数。
func (c *Client) Calls() int64 { return c.calls.Load() }

// Close 实现 contract.G2P；之后的调用返回 ErrBackendUnavailable。
func (c *Client) Close() error {
	c.closed.Store(true)
	return nil
}

// Closed 报告 Close 是否已被调用。
func (c *Client) Closed() bool { return c.closed.Load() }
