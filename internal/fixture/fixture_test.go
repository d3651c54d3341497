package fixture

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"g2pfixture/internal/diag"
	"g2pfixture/pkg/contract"
)

// scripted 是按表应答的 G2P 替身，记录调用顺序。
type scripted struct {
	out   map[string]contract.Result
	errOn map[string]error
	seen  []string
}

func (s *scripted) Phonemize(ctx context.Context, text string) (contract.Result, error) {
	s.seen = append(s.seen, text)
	if err := s.errOn[text]; err != nil {
		return contract.Result{}, err
	}
	if r, ok := s.out[text]; ok {
		return r, nil
	}
	return contract.Result{Phonemes: "ph(" + text + ")"}, nil
}

func (s *scripted) Close() error { return nil }

func TestBuildPreservesOrderAndText(t *testing.T) {
	samples := []string{"‘Hello’", "Hello   World", "Hello\n   \nWorld", "こんにちは、世界！", "Hello   World2"}
	g := &scripted{out: map[string]contract.Result{
		"‘Hello’": {Phonemes: "hɛlˈO", Tokens: []contract.Token{{Text: "‘"}, {Text: "Hello", Phonemes: "hɛlˈO"}, {Text: "’"}}},
	}}
	doc, err := Build(context.Background(), g, samples, nil)
	require.NoError(t, err)
	assert.Equal(t, samples, g.seen, "每样本恰一次且按序")
	require.Len(t, doc.Data, len(samples))
	for i, rec := range doc.Data {
		assert.Equal(t, samples[i], rec.Text)
	}
	assert.Equal(t, Record{Text: "‘Hello’", Phonemes: "hɛlˈO"}, doc.Data[0])
}

func TestBuildAbortsOnFirstFailure(t *testing.T) {
	g := &scripted{errOn: map[string]error{"b": contract.ErrUnresolved}}
	doc, err := Build(context.Background(), g, []string{"a", "b", "c"}, nil)
	require.ErrorIs(t, err, contract.ErrUnresolved)
	assert.Contains(t, err.Error(), `sample 1 "b"`)
	assert.Nil(t, doc.Data, "失败时不返回部分文档")
	assert.Equal(t, []string{"a", "b"}, g.seen)
}

func TestBuildRejectsEmptyPhonemes(t *testing.T) {
	g := &scripted{out: map[string]contract.Result{"Dr. Smith": {}, "  ": {}}}
	_, err := Build(context.Background(), g, []string{"  "}, nil)
	require.NoError(t, err, "空白样本允许空音素")
	_, err = Build(context.Background(), g, []string{"Dr. Smith"}, nil)
	assert.ErrorIs(t, err, contract.ErrPhonemesEmpty)
}

func TestBuildGuards(t *testing.T) {
	_, err := Build(context.Background(), nil, []string{"a"}, nil)
	assert.ErrorIs(t, err, contract.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := &scripted{}
	_, err = Build(ctx, g, []string{"a"}, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, g.seen)
}

func TestBuildDebugLogsTokenCount(t *testing.T) {
	var buf bytes.Buffer
	logger := diag.NewLoggerTo("t", "debug", &buf)
	g := &scripted{out: map[string]contract.Result{"a b": {Phonemes: "x", Tokens: make([]contract.Token, 2)}}}
	_, err := Build(context.Background(), g, []string{"a b"}, logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"tokens":"2"`)
	assert.Contains(t, buf.String(), `"index":"0"`)
}

func TestEncodeFormat(t *testing.T) {
	doc := Document{Data: []Record{
		{Text: "こんにちは、世界！", Phonemes: "kˈOnniʧiwa"},
		{Text: "<A & B>", Phonemes: "ˈA"},
	}}
	b, err := Marshal(doc)
	require.NoError(t, err)
	want := "{\n" +
		"  \"data\": [\n" +
		"    {\n" +
		"      \"text\": \"こんにちは、世界！\",\n" +
		"      \"phonemes\": \"kˈOnniʧiwa\"\n" +
		"    },\n" +
		"    {\n" +
		"      \"text\": \"<A & B>\",\n" +
		"      \"phonemes\": \"ˈA\"\n" +
		"    }\n" +
		"  ]\n" +
		"}\n"
	assert.Equal(t, want, string(b))
}

func TestEncodeEmptyDocument(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Encode(&sb, Document{}))
	assert.Equal(t, "{\n  \"data\": []\n}\n", sb.String())
}

func TestProjectDropsTokens(t *testing.T) {
	r := Project("Cat's tail", contract.Result{Phonemes: "kˈæts tˈAl", Tokens: []contract.Token{{Text: "Cat's"}}})
	assert.Equal(t, Record{Text: "Cat's tail", Phonemes: "kˈæts tˈAl"}, r)
}

func TestBuildKeepsPlaceholderAndWarns(t *testing.T) {
	text := "こんにちは、世界！"
	g := &scripted{out: map[string]contract.Result{
		text: {Phonemes: contract.Placeholder + ", " + contract.Placeholder + "!", Unresolved: []string{"こんにちは", "世界"}},
	}}
	var buf bytes.Buffer
	doc, err := Build(context.Background(), g, []string{"Hello", text}, diag.NewLoggerTo("c", "info", &buf))
	require.NoError(t, err)
	require.Len(t, doc.Data, 2)
	assert.Equal(t, Record{Text: text, Phonemes: "❓, ❓!"}, doc.Data[1])

	logs := buf.String()
	assert.Equal(t, 1, strings.Count(logs, "\n"), "仅未解析样本产生 warn")
	assert.Contains(t, logs, `"level":"warn"`)
	assert.Contains(t, logs, `"index":"1"`)
	assert.Contains(t, logs, "こんにちは, 世界")
}
