package misaki

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"g2pfixture/pkg/contract"
)

//go:embed bridge.py
var bridgeScript string

// Options: misaki 后端选项。
type Options struct {
	// Python: 解释器路径；默认 "python3"。
	Python string `json:"python,omitempty"`
	// Dir: 子进程工作目录（可选）。
	Dir string `json:"dir,omitempty"`
	// StrictUnresolved: 为 true 时任一未解析词即返回 contract.ErrUnresolved；
	// 默认 false，接受含 contract.Placeholder 的音素串，未解析词经 Result.Unresolved 报告。
	StrictUnresolved bool `json:"strict_unresolved,omitempty"`
	// CloseTimeoutSeconds: Close 等待子进程退出的上限；<=0 使用默认 5s。
	CloseTimeoutSeconds int `json:"close_timeout_seconds,omitempty"`
}

// Client 持有一个常驻 Python 子进程，按 JSON 行与 misaki.en.G2P 交互。
// 单实例对应单个方言变体；调用方负责 Close。
type Client struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	out     *bufio.Reader
	stderr  *tailBuffer
	strict  bool
	closeTO time.Duration
	done    chan struct{}
	waitErr error
	broken  bool
}

type request struct {
	Text string `json:"text"`
}

type response struct {
	Ready      bool             `json:"ready,omitempty"`
	Phonemes   *string          `json:"phonemes,omitempty"`
	Tokens     []contract.Token `json:"tokens,omitempty"`
	Unresolved []string         `json:"unresolved,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// New 启动桥接子进程并等待就绪握手。
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
	py := strings.TrimSpace(o.Python)
	if py == "" {
		py = "python3"
	}
	args := []string{"-u", "-c", bridgeScript}
	if opts.Dialect.British() {
		args = append(args, "--british")
	}
	cmd := exec.Command(py, args...)
	cmd.Dir = o.Dir
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	stderr := &tailBuffer{max: 4096}
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("misaki: start %s: %w", py, err)
	}
	to := time.Duration(o.CloseTimeoutSeconds) * time.Second
	if to <= 0 {
		to = 5 * time.Second
	}
	c := &Client{
		cmd:     cmd,
		stdin:   stdin,
		out:     bufio.NewReader(stdout),
		stderr:  stderr,
		strict:  o.StrictUnresolved,
		closeTO: to,
		done:    make(chan struct{}),
	}
	var hello response
	if err := c.readLine(&hello); err != nil {
		_ = c.Close()
		return nil, err
	}
	if !hello.Ready {
		_ = c.Close()
		return nil, fmt.Errorf("misaki: handshake: %w", contract.ErrResponseInvalid)
	}
	return c, nil
}

var _ contract.G2P = (*Client)(nil)

// Phonemize 实现 contract.G2P：写一行请求，读一行响应。
func (c *Client) Phonemize(ctx context.Context, text string) (contract.Result, error) {
	if err := ctx.Err(); err != nil {
		return contract.Result{}, err
	}
	if c.broken {
		return contract.Result{}, contract.ErrBackendUnavailable
	}
	b, err := json.Marshal(request{Text: text})
	if err != nil {
		return contract.Result{}, err
	}
	// 取消时结束子进程，使阻塞中的读写返回
	stop := context.AfterFunc(ctx, func() { _ = c.cmd.Process.Kill() })
	defer stop()
	if _, err := c.stdin.Write(append(b, '\n')); err != nil {
		c.broken = true
		if ctx.Err() != nil {
			return contract.Result{}, fmt.Errorf("misaki: %w", ctx.Err())
		}
		return contract.Result{}, fmt.Errorf("misaki: write: %w: %v%s", contract.ErrBackendUnavailable, err, c.stderrTail())
	}
	var resp response
	if err := c.readLine(&resp); err != nil {
		if ctx.Err() != nil {
			return contract.Result{}, fmt.Errorf("misaki: %w", ctx.Err())
		}
		return contract.Result{}, err
	}
	if resp.Error != "" {
		return contract.Result{}, fmt.Errorf("misaki: %s: %w", resp.Error, contract.ErrBackendFailed)
	}
	if resp.Phonemes == nil {
		return contract.Result{}, fmt.Errorf("misaki: missing phonemes: %w", contract.ErrResponseInvalid)
	}
	if len(resp.Unresolved) > 0 && c.strict {
		return contract.Result{}, fmt.Errorf("misaki: %s: %w", strings.Join(resp.Unresolved, ", "), contract.ErrUnresolved)
	}
	return contract.Result{Phonemes: *resp.Phonemes, Tokens: resp.Tokens, Unresolved: resp.Unresolved}, nil
}

func (c *Client) readLine(v *response) error {
	line, err := c.out.ReadBytes('\n')
	if err != nil {
		c.broken = true
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("misaki: backend exited: %w%s", contract.ErrBackendUnavailable, c.stderrTail())
		}
		return fmt.Errorf("misaki: read: %w: %v", contract.ErrBackendUnavailable, err)
	}
	if err := json.Unmarshal(bytes.TrimSpace(line), v); err != nil {
		c.broken = true
		return fmt.Errorf("misaki: decode %q: %w", truncate(string(line), 120), contract.ErrResponseInvalid)
	}
	return nil
}

func (c *Client) stderrTail() string {
	s := strings.TrimSpace(c.stderr.String())
	if s == "" {
		return ""
	}
	return " (stderr: " + truncate(s, 512) + ")"
}

// Close 关闭 stdin 并等待子进程退出；超时则强制结束。
func (c *Client) Close() error {
	if c == nil || c.cmd == nil {
		return nil
	}
	select {
	case <-c.done:
		return c.waitErr
	default:
	}
	_ = c.stdin.Close()
	exited := make(chan error, 1)
	go func() { exited <- c.cmd.Wait() }()
	select {
	case err := <-exited:
		c.waitErr = err
	case <-time.After(c.closeTO):
		_ = c.cmd.Process.Kill()
		c.waitErr = <-exited
	}
	close(c.done)
	var ee *exec.ExitError
	if errors.As(c.waitErr, &ee) && c.broken {
		// 已作为 Phonemize 错误上报过
		return nil
	}
	return c.waitErr
}

// tailBuffer 只保留最后 max 字节的 stderr，供错误信息引用。
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "…"
}
