// Package textnorm 规范化标题文本：去除变音符号、大小写折叠、标点转空白，并切分 token。
// 系列判定（标题 token 重叠、短语包含）依赖这里的输出保持稳定。
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords 不参与标题 token 重叠：冠词、季数/篇章等系列修饰词、常见罗马字助词。
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "and": {}, "in": {}, "to": {},
	"no": {}, "wa": {}, "ga": {}, "wo": {}, "ni": {}, "de": {}, "e": {},
	"season": {}, "part": {}, "cour": {}, "movie": {}, "film": {},
	"ova": {}, "ona": {}, "special": {}, "specials": {}, "tv": {}, "series": {},
	"final": {}, "chapter": {}, "episode": {}, "recap": {},
	"2nd": {}, "3rd": {}, "4th": {}, "5th": {},
	"ii": {}, "iii": {}, "iv": {},
}

// Fold 去除变音符号并做大小写折叠（“Pokémon” → “pokemon”）。
// transform/cases 的 Transformer 带状态，每次调用单独创建，保证并发安全。
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return cases.Fold().String(folded)
}

// Normalize 返回折叠后、非字母数字替换为空白并压缩空白的标题短语。
func Normalize(s string) string {
	folded := Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokens 返回标题的有效 token 集合：去掉停用词、纯数字以及单字符 token。
func Tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(Normalize(s)) {
		if len([]rune(tok)) < 2 || isDigits(tok) {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

// ContainsPhrase 判断 phrase 是否以完整单词边界出现在 text 中；两者都应已 Normalize。
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" || text == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// Lower 用于类型/主题等元数据字段的匹配键。
func Lower(s string) string {
	return strings.TrimSpace(Fold(s))
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
