package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"g2pfixture/internal/corpus"
	"g2pfixture/internal/diag"
	"g2pfixture/internal/fixture"
	"g2pfixture/pkg/contract"
)

// - 单 goroutine：变体按声明顺序串行执行，American 完成后才开始 British。
// - 首错中止：任一样本或写出失败即返回，不写出该变体的任何文件，也不再执行后续变体。
// - 实例作用域：每个变体构造一个 G2P 实例，复用于该变体全部样本，变体结束即 Close。

// OutputDir: 夹具输出目录（相对工作目录，必须已存在）。
const OutputDir = "../com.github.asus4.kokoro-tts/Tests/Data"

// Variant: 一个方言变体 = G2P 选项 + 样本集 + 目标文件名。
type Variant struct {
	Name    string
	Options contract.G2POptions
	Samples []string
	Target  contract.ArtifactID
}

// DefaultVariants 返回固定的两个变体（顺序即执行顺序）。
func DefaultVariants() []Variant {
	return []Variant{
		{
			Name:    "american",
			Options: contract.G2POptions{Dialect: contract.DialectUS, Transformer: false, Fallback: contract.FallbackNone},
			Samples: corpus.American(),
			Target:  "american_test_data.json",
		},
		{
			Name:    "british",
			Options: contract.G2POptions{Dialect: contract.DialectGB, Transformer: false, Fallback: contract.FallbackNone},
			Samples: corpus.British(),
			Target:  "british_test_data.json",
		},
	}
}

// G2PFactory 按变体选项构造一个新的 G2P 实例。
type G2PFactory func(opts contract.G2POptions) (contract.G2P, error)

// Components 聚合运行所需的协作者。
type Components struct {
	// Backend: 后端名，仅用于日志与终端展示。
	Backend string
	NewG2P  G2PFactory
	Writer  contract.Writer
}

// Run 依次执行各变体：构造 G2P → fixture.Build → fixture.Marshal → Writer.Write → Close。
func Run(ctx context.Context, comp Components, variants []Variant, logger *diag.Logger) error {
	if err := sanity(comp, variants); err != nil {
		return fmt.Errorf("sanity: %w", err)
	}
	start := time.Now()
	diag.GetTerminal().RunStart(comp.Backend)
	for _, v := range variants {
		if err := RunVariant(ctx, comp, v, logger); err != nil {
			diag.GetTerminal().RunFinish(false, time.Since(start))
			return fmt.Errorf("variant %s: %w", v.Name, err)
		}
	}
	diag.GetTerminal().RunFinish(true, time.Since(start))
	return nil
}

// RunVariant 执行单个变体；成功时目标文件被完整替换，失败时目标文件保持原状。
func RunVariant(ctx context.Context, comp Components, v Variant, logger *diag.Logger) (err error) {
	start := time.Now()
	kv := map[string]string{"samples": strconv.Itoa(len(v.Samples)), "dialect": string(v.Options.Dialect), "target": string(v.Target)}
	timer := logger.StartVariant("pipeline", "variant", v.Name, kv)
	diag.GetTerminal().VariantStart(v.Name, len(v.Samples))
	defer func() {
		diag.GetTerminal().VariantFinish(err == nil, time.Since(start))
		if err != nil {
			fail(logger, "pipeline", "variant failed", &start, v.Name, err)
			return
		}
		timer.Finish("variant", int64(len(v.Samples)))
		diag.IncOp("pipeline", "variant", "success")
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	g2p, err := comp.NewG2P(v.Options)
	if err != nil {
		return fmt.Errorf("g2p new: %w", err)
	}
	defer func() {
		if cerr := g2p.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("g2p close: %w", cerr)
		}
	}()

	btimer := logger.StartVariant("fixture", "build", v.Name, nil)
	doc, err := fixture.Build(ctx, g2p, v.Samples, logger)
	if err != nil {
		return fmt.Errorf("fixture build: %w", err)
	}
	if len(doc.Data) != len(v.Samples) {
		return fmt.Errorf("%w: %d records for %d samples", contract.ErrInvariantViolation, len(doc.Data), len(v.Samples))
	}
	btimer.Finish("build", int64(len(doc.Data)))
	diag.IncOp("fixture", "build", "success")

	b, err := fixture.Marshal(doc)
	if err != nil {
		return fmt.Errorf("fixture encode: %w", err)
	}
	wtimer := logger.StartVariant("writer", "write", v.Name, map[string]string{"bytes": strconv.Itoa(len(b))})
	if err := comp.Writer.Write(ctx, v.Target, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("writer write %s: %w", v.Target, err)
	}
	wtimer.Finish("write", int64(len(b)))
	diag.IncOp("writer", "write", "success")
	return nil
}

func fail(logger *diag.Logger, comp, msg string, since *time.Time, variant string, err error) {
	code := diag.Classify(err)
	logger.ErrorWithKV(comp, string(code), msg, since, variant, map[string]string{"err": err.Error()})
	diag.IncOp(comp, "error", "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, string(code))
	}
}

func sanity(comp Components, variants []Variant) error {
	if comp.NewG2P == nil {
		return errors.New("g2p factory is nil")
	}
	if comp.Writer == nil {
		return errors.New("writer is nil")
	}
	seen := make(map[contract.ArtifactID]bool, len(variants))
	for _, v := range variants {
		if err := v.Options.Validate(); err != nil {
			return fmt.Errorf("variant %s: %w", v.Name, err)
		}
		if v.Target == "" || seen[v.Target] {
			return fmt.Errorf("%w: variant %s target %q", contract.ErrInvariantViolation, v.Name, v.Target)
		}
		// 目标须是输出目录下的单个文件名
		if id := contract.NormalizeFileID(string(v.Target)); id != v.Target || strings.Contains(string(id), "/") {
			return fmt.Errorf("%w: variant %s target %q", contract.ErrPathInvalid, v.Name, v.Target)
		}
		seen[v.Target] = true
	}
	return nil
}
