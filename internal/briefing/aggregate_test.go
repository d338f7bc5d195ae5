package briefing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarize_RoundTrip(t *testing.T) {
	oracle := &fakeOracle{respond: func(string) (string, error) {
		return `{"positive_opinions": "X-summary", "negative_concerns": "Y-summary", "constructive_suggestions": ""}`, nil
	}}
	snippets := Snippets{Positive: []string{"x1", "x2"}, Negative: []string{"y1"}}

	sum := NewAggregator(oracle, 0, discardLogger).Summarize(context.Background(), snippets, "topic", "req-1")

	require.NoError(t, sum.Err)
	require.Equal(t, "X-summary", sum.Positive)
	require.Equal(t, "Y-summary", sum.Negative)
	require.Equal(t, "", sum.Constructive)

	require.Equal(t, 1, oracle.calls())
	prompt := oracle.prompts[0]
	require.Contains(t, prompt, "# 正面意见：\n- x1\n- x2\n")
	require.Contains(t, prompt, "# 负面关切：\n- y1\n")
	require.Contains(t, prompt, "# 建设性建议：\n无\n")
}

func TestSummarize_EmptyMiddleDimension(t *testing.T) {
	oracle := &fakeOracle{respond: func(string) (string, error) {
		return `{"positive_opinions":"X-summary","negative_concerns":"","constructive_suggestions":"Y-summary"}`, nil
	}}
	snippets := Snippets{Positive: []string{"x"}, Negative: []string{}, Constructive: []string{"y"}}

	sum := NewAggregator(oracle, 0, discardLogger).Summarize(context.Background(), snippets, "topic", "req-1")

	require.NoError(t, sum.Err)
	require.Equal(t, "X-summary", sum.Positive)
	require.Equal(t, "", sum.Negative)
	require.Equal(t, "Y-summary", sum.Constructive)

	prompt := oracle.prompts[0]
	require.Contains(t, prompt, "# 正面意见：\n- x\n")
	require.Contains(t, prompt, "# 负面关切：\n无\n")
	require.Contains(t, prompt, "# 建设性建议：\n- y\n")
}

func TestSummarize_AllEmptyStillCallsOracle(t *testing.T) {
	oracle := &fakeOracle{respond: func(string) (string, error) {
		return `{"positive_opinions": "", "negative_concerns": "", "constructive_suggestions": ""}`, nil
	}}

	sum := NewAggregator(oracle, 0, discardLogger).Summarize(context.Background(), Snippets{}, "topic", "req-1")

	require.NoError(t, sum.Err)
	require.Equal(t, 1, oracle.calls())
	require.Equal(t, 3, strings.Count(oracle.prompts[0], "\n无\n"))
}

func TestSummarize_FailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
	}{
		{name: "oracle error", err: errors.New("timeout")},
		{name: "malformed JSON", content: `{"positive_opinions": "half`},
		{name: "not an object", content: "I cannot help with that."},
		{name: "wrong value type", content: `{"positive_opinions": ["a"], "negative_concerns": "b", "constructive_suggestions": "c"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &fakeOracle{respond: func(string) (string, error) { return tt.content, tt.err }}

			sum := NewAggregator(oracle, 0, discardLogger).Summarize(context.Background(),
				Snippets{Positive: []string{"p"}}, "topic", "req-1")

			require.Error(t, sum.Err)
			require.Empty(t, sum.Positive)
			require.Empty(t, sum.Negative)
			require.Empty(t, sum.Constructive)
		})
	}
}

func TestSummarize_FencedResponse(t *testing.T) {
	oracle := &fakeOracle{respond: func(string) (string, error) {
		return "好的，结果如下：\n```json\n{\"positive_opinions\": \"P\", \"negative_concerns\": \"N\", \"constructive_suggestions\": \"C\"}\n```", nil
	}}

	sum := NewAggregator(oracle, 0, discardLogger).Summarize(context.Background(), Snippets{}, "topic", "req-1")

	require.NoError(t, sum.Err)
	require.Equal(t, "P", sum.Positive)
	require.Equal(t, "N", sum.Negative)
	require.Equal(t, "C", sum.Constructive)
}

func TestSummarize_MissingKeysAreEmpty(t *testing.T) {
	oracle := &fakeOracle{respond: func(string) (string, error) {
		return `{"negative_concerns": "  only negatives  "}`, nil
	}}

	sum := NewAggregator(oracle, 0, discardLogger).Summarize(context.Background(), Snippets{}, "topic", "req-1")

	require.NoError(t, sum.Err)
	require.Equal(t, "", sum.Positive)
	require.Equal(t, "only negatives", sum.Negative)
}
