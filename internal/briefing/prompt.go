package briefing

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// emptyListPlaceholder marks an empty category in the aggregation prompt.
const emptyListPlaceholder = "无"

const extractionPrompt = `### 角色：你是一名专业的舆情分析师，负责从新闻报道中提炼正面意见、负面关切和建设性建议。
### 任务：阅读下面的新闻，围绕#%s#这一主题，提取其中的正面意见、负面关切和建设性建议。
### 分析步骤：
1. 判断这篇新闻的主旨属于正面意见、负面关切还是建设性建议
2. 正面意见放入 positive_opinions 列表
3. 负面关切放入 negative_concerns 列表
4. 建设性建议放入 constructive_suggestions 列表
5. 一篇新闻可以同时包含多个维度的内容
6. 与主题无关的内容直接忽略，不要提取
### 输出格式（严格的 JSON）：
{"positive_opinions": [], "negative_concerns": [], "constructive_suggestions": []}
只输出 JSON，不要输出其他内容
### 新闻内容：
# 标题：%s
# 摘要：%s
`

const aggregationPrompt = `### 角色：你是一名专业的舆情分析师。
### 任务：围绕#%s#这一主题，分别对下面三类内容做总结，每类生成一段简洁的文字。
### 分析步骤：
1. 对正面意见、负面关切和建设性建议分别总结，互不混合
2. 某一类内容为"无"时，该类输出空字符串
### 要求：
1. 覆盖主要观点
2. 语言简洁，避免重复
3. 保持原有的情感色彩
4. 直接给出总结，不要添加其他说明
### 输出格式（严格的 JSON）：
{"positive_opinions": "xxx", "negative_concerns": "xxx", "constructive_suggestions": "xxx"}
### 需要总结的内容：
# 正面意见：
%s
# 负面关切：
%s
# 建设性建议：
%s
`

func buildExtractionPrompt(topic, title, description, fullText string, excerptChars int) string {
	prompt := fmt.Sprintf(extractionPrompt, topic, title, description)
	if excerpt := truncateRunes(strings.TrimSpace(fullText), excerptChars); excerpt != "" {
		prompt += "# 正文节选：" + excerpt + "\n"
	}
	return prompt
}

func buildAggregationPrompt(topic string, s Snippets) string {
	return fmt.Sprintf(aggregationPrompt,
		topic,
		renderBullets(s.Positive),
		renderBullets(s.Negative),
		renderBullets(s.Constructive),
	)
}

func renderBullets(items []string) string {
	if len(items) == 0 {
		return emptyListPlaceholder
	}
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(item)
	}
	return sb.String()
}

func truncateRunes(s string, max int) string {
	if max <= 0 || s == "" {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
