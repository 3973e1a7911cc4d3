// Package textfold 提供关键字检索用的文本归一化。
//
// 越南语标题中的声调符号会导致 "bao cao" 无法匹配 "Báo cáo"，
// 统一在写入 search_text 列与构造查询条件时做同一套折叠。
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold 转小写、去除组合附加符号、折叠空白
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	// đ/Đ 不是组合字符，需要单独映射
	out = strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Join 折叠多个字段并以空格拼接，用于生成 search_text
func Join(parts ...string) string {
	folded := make([]string, 0, len(parts))
	for _, p := range parts {
		if f := Fold(p); f != "" {
			folded = append(folded, f)
		}
	}
	return strings.Join(folded, " ")
}

// LikePattern 生成 ILIKE 模式串，转义 % 与 _
func LikePattern(keyword string) string {
	k := Fold(keyword)
	k = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(k)
	return "%" + k + "%"
}
