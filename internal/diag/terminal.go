package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const progressEvery = 100 * time.Millisecond

// Terminal: 终端信息提示（非日志）。
// - 输出到提供的 io.Writer（默认建议 stderr）。
// - TTY: 单行 \r 覆盖；非 TTY: 关键节点分行打印。
// - 写失败后进入禁用态为 no-op。
type Terminal struct {
	w       io.Writer
	enabled bool
	isTTY   bool

	backend      string
	variantsDone int
	runStart     time.Time

	// 当前变体
	curVariant  string
	samplesTot  int
	samplesDone int

	lastLen   int
	lastFlush time.Time

	mu sync.Mutex
}

// 进程级终端（可选，全局设置后供 fixture/pipeline 旁路调用）。
var (
	termMu sync.RWMutex
	term   *Terminal
)

// SetTerminal 设置全局终端指针（nil 可清除）。
func SetTerminal(t *Terminal) { termMu.Lock(); term = t; termMu.Unlock() }

// GetTerminal 返回全局终端（可能为 nil）。
func GetTerminal() *Terminal { termMu.RLock(); defer termMu.RUnlock(); return term }

// NewTerminal 构造终端提示器。
// enabled=false 时总是 no-op。
func NewTerminal(w io.Writer, enabled bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	t := &Terminal{w: w, enabled: enabled}
	if f, ok := w.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			t.isTTY = fi.Mode()&os.ModeCharDevice != 0
		}
	}
	return t
}

// RunStart: 记录运行上下文（后端名）。
func (t *Terminal) RunStart(backend string) {
	t.do(func() {
		t.backend = safe(backend)
		t.variantsDone = 0
		t.runStart = time.Now()
		t.println(fmt.Sprintf("[run] g2p=%s", t.backend))
	})
}

// VariantStart: 标记当前变体与样本总数。
func (t *Terminal) VariantStart(name string, total int) {
	t.do(func() {
		t.curVariant, t.samplesTot, t.samplesDone = safe(name), total, 0
		if !t.isTTY {
			t.println(fmt.Sprintf("[variant] %s | 样本=%d", t.curVariant, total))
		}
	})
}

// SampleDone: 样本完成一条；TTY 下节流刷新进度（≥100ms）。
func (t *Terminal) SampleDone() {
	t.do(func() {
		t.samplesDone++
		if !t.isTTY || time.Since(t.lastFlush) < progressEvery {
			return
		}
		t.lastFlush = time.Now()
		t.printInline(fmt.Sprintf("[variant] %s | 进度 %d/%d | 用时 %s",
			t.curVariant, t.samplesDone, t.samplesTot, formatDur(time.Since(t.runStart))))
	})
}

// VariantFinish: 完成当前变体（立即刷新并换行）。
func (t *Terminal) VariantFinish(ok bool, dur time.Duration) {
	t.do(func() {
		status := "fail"
		if ok {
			status = "done"
			t.variantsDone++
		}
		if t.isTTY && t.lastLen > 0 {
			t.printInline("")
		}
		t.println(fmt.Sprintf("[%s] %s | 样本 %d/%d | 用时 %s",
			status, t.curVariant, t.samplesDone, t.samplesTot, formatDur(dur)))
	})
}

// RunFinish: 结束总览。
func (t *Terminal) RunFinish(ok bool, dur time.Duration) {
	t.do(func() {
		tag := map[bool]string{true: "ok", false: "fail"}[ok]
		t.println(fmt.Sprintf("[%s] 全部完成 | 变体 %d | 总用时 %s", tag, t.variantsDone, formatDur(dur)))
	})
}

// do 在锁内执行 fn；nil 接收者或禁用态为 no-op。
func (t *Terminal) do(fn func()) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled {
		fn()
	}
}

func (t *Terminal) println(s string) {
	if _, err := io.WriteString(t.w, s+"\n"); err != nil {
		t.enabled = false
	}
	t.lastLen = 0
}

func (t *Terminal) printInline(s string) {
	n := utf8.RuneCountInString(s)
	// 新行比旧行短时以空格覆盖残留
	line := "\r" + s + strings.Repeat(" ", max(t.lastLen-n, 0))
	if _, err := io.WriteString(t.w, line); err != nil {
		t.enabled = false
		return
	}
	t.lastLen = n
}

func safe(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

func formatDur(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", max(d.Milliseconds(), 0))
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
