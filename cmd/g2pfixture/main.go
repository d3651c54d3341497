package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"

	cfgpkg "g2pfixture/internal/config"
	"g2pfixture/internal/diag"
	"g2pfixture/internal/pipeline"
)

var pipelineRun = pipeline.Run

// 无参数、无环境变量：依次生成 American 与 British 两份夹具。
// 可选读取工作目录下 g2pfixture.json（日志等级、后端选择与后端选项）。
// 退出码：0 成功；1 运行期失败；3 配置/装配失败。
func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()
	corrID := uuid.NewString()
	logLevel := "info"
	// 先占位默认，解析配置后按最终 level 重建
	logger := diag.NewLogger(corrID, logLevel)
	defer func() { _ = logger.Close() }()

	cfg, found, err := cfgpkg.LoadOptional(cfgpkg.FileName)
	if err != nil {
		fprintf(os.Stderr, "配置解析失败（%s）: %v\n", cfgpkg.FileName, err)
		logger.Error("config", string(diag.Classify(err)), "first error", &start)
		return 3
	}
	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(os.Stderr, "配置校验失败: %v\n", err)
		_ = dumpConfig(cfg)
		logger.Error("config", string(diag.Classify(err)), "first error", &start)
		return 3
	}

	if lv := strings.TrimSpace(cfg.Logging.Level); lv != "" && lv != logLevel {
		_ = logger.Close()
		logger = diag.NewLogger(corrID, lv)
	}

	comp, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(os.Stderr, "装配失败: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "first error", &start)
		return 3
	}
	logger.Debug("config", "effective", map[string]string{
		"config_file": fmt.Sprintf("%t", found),
		"g2p":         comp.Backend,
		"output_dir":  pipeline.OutputDir,
	})

	// 预检：输出目录必须已存在（不创建），尽早失败以免白跑整组样本
	if err := preflightOutputDir(pipeline.OutputDir); err != nil {
		fprintf(os.Stderr, "输出目录不可用: %v\n", err)
		logger.Error("pipeline", string(diag.Classify(err)), "first error", &start)
		return 1
	}

	// 终端信息提示（非日志）
	term := diag.NewTerminal(os.Stderr, true)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t := logger.Start("pipeline", "run")
	if err := pipelineRun(ctx, comp, pipeline.DefaultVariants(), logger); err != nil {
		code := string(diag.Classify(err))
		logger.Error("pipeline", code, "first error", &start)
		diag.IncOp("pipeline", "error", "error")
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		if !errors.Is(err, context.Canceled) {
			fprintf(os.Stderr, "运行失败: %v\n", err)
		}
		return 1
	}
	t.Finish("run", 0)
	diag.IncOp("pipeline", "finish", "success")
	diag.ObserveDuration("pipeline", "finish", time.Since(start).Milliseconds())
	logMetrics(logger)
	return 0
}

func preflightOutputDir(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return &os.PathError{Op: "stat", Path: dir, Err: errors.New("not a directory")}
	}
	return nil
}

// logMetrics 以 debug 事件输出本次运行的计数快照。
func logMetrics(logger *diag.Logger) {
	snap := diag.Snapshot()
	kv := make(map[string]string, len(snap))
	for _, k := range diag.SnapshotKeys(snap) {
		kv[k] = fmt.Sprintf("%d", snap[k])
	}
	logger.Debug("pipeline", "metrics", kv)
}

func fprintf(w *os.File, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, _ = os.Stderr.Write(append([]byte("有效配置:\n"), b...))
	_, _ = os.Stderr.Write([]byte("\n"))
	return nil
}
