package contract

// FileID: 逻辑工件ID（相对路径，需规范化，跨平台一致）。
type FileID string

// Dialect: G2P 方言变体（决定音系/拼写规则集）。
type Dialect string

const (
	// DialectUS: 主方言（美式英语）。
	DialectUS Dialect = "en-us"
	// DialectGB: 备选方言（英式英语）。
	DialectGB Dialect = "en-gb"
)

// Valid 报告 d 是否为已知方言。
func (d Dialect) Valid() bool {
	return d == DialectUS || d == DialectGB
}

// British 报告 d 是否选择英式规则集。
func (d Dialect) British() bool { return d == DialectGB }

// Fallback: 无法解析的词的处理策略。
type Fallback string

const (
	// FallbackNone: 不做猜测；无法解析的词按后端约定输出占位或报错。
	FallbackNone Fallback = "none"
)

// Placeholder: fallback=none 下未解析词在音素串中的占位符。
const Placeholder = "❓"

// Token: 后端返回的结构化分词明细。
// 仅用于诊断与计数；不进入夹具文件。
type Token struct {
	Text       string `json:"text"`
	Tag        string `json:"tag,omitempty"`
	Whitespace string `json:"whitespace,omitempty"`
	Phonemes   string `json:"phonemes,omitempty"`
}

// Result: 单次 G2P 调用的完整结果。
type Result struct {
	Phonemes string
	Tokens   []Token
	// Unresolved: 以 Placeholder 代替的原文词（按出现顺序）；为空表示全部解析。
	Unresolved []string
}
