// Package fixture 将样本集经 G2P 协作者转换为夹具文档并序列化。
package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"g2pfixture/internal/diag"
	"g2pfixture/pkg/contract"
)

// Record: 持久化契约中的单条夹具（仅 text 与 phonemes）。
type Record struct {
	Text     string `json:"text"`
	Phonemes string `json:"phonemes"`
}

// Document: 单个变体的夹具文档；顶层仅一个键 data。
type Document struct {
	Data []Record `json:"data"`
}

// Project 将完整的 G2P 结果投影为可持久化的 Record。
// 分词明细在此丢弃；“持久化什么”只在这里决定。
func Project(text string, res contract.Result) Record {
	return Record{Text: text, Phonemes: res.Phonemes}
}

// Build 按样本顺序逐条调用 g2p（每样本恰一次），累积夹具文档。
// 任一样本失败即整体返回错误，不返回部分文档。
func Build(ctx context.Context, g2p contract.G2P, samples []string, logger *diag.Logger) (Document, error) {
	if g2p == nil {
		return Document{}, fmt.Errorf("%w: nil g2p", contract.ErrInvalidInput)
	}
	doc := Document{Data: make([]Record, 0, len(samples))}
	for i, text := range samples {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		res, err := g2p.Phonemize(ctx, text)
		if err != nil {
			return Document{}, fmt.Errorf("sample %d %q: %w", i, text, err)
		}
		if res.Phonemes == "" && strings.TrimSpace(text) != "" {
			return Document{}, fmt.Errorf("sample %d %q: %w", i, text, contract.ErrPhonemesEmpty)
		}
		if len(res.Unresolved) > 0 {
			logger.Warn("fixture", "unresolved", map[string]string{
				"index": fmt.Sprintf("%d", i),
				"words": strings.Join(res.Unresolved, ", "),
			})
		}
		if logger != nil {
			logger.Debug("fixture", "sample", map[string]string{
				"index":  fmt.Sprintf("%d", i),
				"tokens": fmt.Sprintf("%d", len(res.Tokens)),
			})
		}
		doc.Data = append(doc.Data, Project(text, res))
		diag.GetTerminal().SampleDone()
	}
	return doc, nil
}

// Encode 以 UTF-8、两空格缩进写出 doc；非 ASCII 字符原样输出，不做 HTML 转义。
func Encode(w io.Writer, doc Document) error {
	if doc.Data == nil {
		doc.Data = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Marshal 返回 Encode 的字节结果。
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
