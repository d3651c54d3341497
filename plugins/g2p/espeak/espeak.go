package espeak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"g2pfixture/pkg/contract"
)

// Options: eSpeak NG 后端选项。
type Options struct {
	// Binary: 可执行文件；默认 "espeak-ng"。
	Binary string `json:"binary,omitempty"`
	// DataPath: espeak-ng-data 所在目录（传给 --path）；为空使用内置默认。
	DataPath string `json:"data_path,omitempty"`
}

// Client 每次调用执行一次 espeak-ng，按方言选择 voice，输出 IPA。
type Client struct {
	bin   string
	voice string
	data  string
}

// New 构造 Client；可执行文件不存在时返回 ErrBackendUnavailable。
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
	bin := strings.TrimSpace(o.Binary)
	if bin == "" {
		bin = "espeak-ng"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("espeak: %w: %v", contract.ErrBackendUnavailable, err)
	}
	return &Client{bin: path, voice: string(opts.Dialect), data: o.DataPath}, nil
}

var _ contract.G2P = (*Client)(nil)

func (c *Client) args() []string {
	a := []string{"-q", "--ipa", "-v", c.voice, "--stdin"}
	if c.data != "" {
		a = append(a, "--path", c.data)
	}
	return a
}

// Phonemize 实现 contract.G2P；多行输出按空格拼接，分词按空白切分。
func (c *Client) Phonemize(ctx context.Context, text string) (contract.Result, error) {
	if err := ctx.Err(); err != nil {
		return contract.Result{}, err
	}
	cmd := exec.CommandContext(ctx, c.bin, c.args()...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		return contract.Result{}, fmt.Errorf("espeak: %w: %v %s", contract.ErrBackendFailed, err, msg)
	}
	words := strings.Fields(stdout.String())
	toks := make([]contract.Token, 0, len(words))
	for _, w := range words {
		toks = append(toks, contract.Token{Text: w, Whitespace: " ", Phonemes: w})
	}
	return contract.Result{Phonemes: strings.Join(words, " "), Tokens: toks}, nil
}

// Close 实现 contract.G2P；无常驻资源。
func (c *Client) Close() error { return nil }
