package usecase

import (
	"strings"
	"unicode/utf8"
)

// SearchPatterns はキーワードから LIKE パターンを作る（小文字）。
//   - そのまま部分一致
//   - 4文字以上なら末尾1文字を落とした部分一致（打ち間違い・複数形）
//   - 1文字ずつ%で挟んだパターン（文字抜け）
func SearchPatterns(q string) []string {
	term := strings.ToLower(strings.TrimSpace(q))
	if term == "" {
		return nil
	}
	term = stripLikeWildcards(term)
	if term == "" {
		return nil
	}

	out := []string{"%" + term + "%"}
	seen := map[string]struct{}{out[0]: {}}
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	if utf8.RuneCountInString(term) > 3 {
		_, size := utf8.DecodeLastRuneInString(term)
		add("%" + term[:len(term)-size] + "%")
	}

	var b strings.Builder
	b.WriteByte('%')
	for _, r := range term {
		if r == ' ' {
			continue
		}
		b.WriteRune(r)
		b.WriteByte('%')
	}
	add(b.String())

	return out
}

// ユーザー入力の % と _ は捨てる
func stripLikeWildcards(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
