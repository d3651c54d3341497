package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 级别定义
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var levelNames = [...]string{Debug: "debug", Info: "info", Warn: "warn", Error: "error"}

func (l Level) String() string {
	if l < Debug || l > Error {
		return "info"
	}
	return levelNames[l]
}

// 默认日志位置与轮转阈值（MB）。
const (
	DefaultLogDir    = "logs"
	defaultLogFile   = "g2pfixture.log"
	defaultMaxSizeMB = 10
	defaultBackups   = 5
)

// Logger 为最小结构化日志器：单行 JSON；写入轮转文件，失败时回落 stderr。
type Logger struct {
	corrID string
	level  Level
	sink   io.Writer
	mu     sync.Mutex
}

// NewLogger 通过配置的 level 初始化，并将日志写入 logs/g2pfixture.log，10MB 轮转。
func NewLogger(corrID, level string) *Logger {
	return NewLoggerTo(corrID, level, newRotatingSink(DefaultLogDir))
}

// NewLoggerTo 使用指定 sink；sink 为 nil 时写 stderr。
func NewLoggerTo(corrID, level string, sink io.Writer) *Logger {
	return &Logger{corrID: corrID, level: parseLevel(strings.TrimSpace(level)), sink: sink}
}

func newRotatingSink(dir string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, defaultLogFile),
		MaxSize:    defaultMaxSizeMB,
		MaxBackups: defaultBackups,
	}
}

// Close 关闭可关闭的 sink（轮转文件）。
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// parseLevel 不区分大小写；未知值按 info。
func parseLevel(s string) Level {
	for lv, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(lv)
		}
	}
	return Info
}

// Event 为标准事件结构。
type Event struct {
	Level   string            `json:"level"`
	TS      string            `json:"ts"`
	CorrID  string            `json:"corr_id"`
	Comp    string            `json:"comp"`
	Stage   string            `json:"stage"` // start|finish|error|debug
	Code    string            `json:"code,omitempty"`
	DurMS   int64             `json:"dur_ms,omitempty"`
	Count   int64             `json:"count,omitempty"`
	Variant string            `json:"variant,omitempty"`
	Msg     string            `json:"msg"`
	KV      map[string]string `json:"kv,omitempty"`
}

func (l *Logger) log(lv Level, ev Event) {
	if l == nil || lv < l.level {
		return
	}
	ev.Level = lv.String()
	ev.TS = NowUTC()
	ev.CorrID = l.corrID
	b, _ := json.Marshal(ev)
	b = append(b, '\n')
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink == nil {
		_, _ = os.Stderr.Write(b)
		return
	}
	if _, err := l.sink.Write(b); err != nil {
		fmt.Fprintf(os.Stderr, "logger sink error: %v\n", err)
		_, _ = os.Stderr.Write(b)
	}
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Msg: msg})
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartVariant 记录带 variant 与键值的 start。
func (l *Logger) StartVariant(comp, msg, variant string, kv map[string]string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Variant: variant, Msg: msg, KV: kv})
	return &Timer{l: l, comp: comp, variant: variant, t0: time.Now()}
}

// Error 记录 error 事件（不受采样影响）。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.ErrorWithKV(comp, code, msg, durSince, "", nil)
}

// ErrorWithKV 支持 variant 与附加键值（例如样本下标、后端 stderr 片段）。
func (l *Logger) ErrorWithKV(comp, code, msg string, durSince *time.Time, variant string, kv map[string]string) {
	var dur int64
	if durSince != nil {
		dur = time.Since(*durSince).Milliseconds()
	}
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: dur, Msg: msg, Variant: variant, KV: kv})
}

// Warn 记录 warn 事件。
func (l *Logger) Warn(comp, msg string, kv map[string]string) {
	l.log(Warn, Event{Comp: comp, Stage: "warn", Msg: msg, KV: kv})
}

// Debug 输出调试事件（仅在 level=debug 时生效）。
func (l *Logger) Debug(comp, msg string, kv map[string]string) {
	l.log(Debug, Event{Comp: comp, Stage: "debug", Msg: msg, KV: kv})
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l       *Logger
	comp    string
	variant string
	t0      time.Time
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	d := time.Since(t.t0)
	ObserveDuration(t.comp, "finish", d.Milliseconds())
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: d.Milliseconds(), Count: count, Variant: t.variant, Msg: msg})
}
