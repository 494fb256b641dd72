package normalize

import (
	"regexp"
	"strings"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Text заменяет NBSP на пробел, схлопывает пробелы и обрезает края
func Text(s string) string {
	s = strings.ReplaceAll(s, "\u00A0", " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fold: Text в нижнем регистре, для сравнения подписей на странице
func Fold(s string) string {
	return strings.ToLower(Text(s))
}

func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Contains сравнивает без учёта регистра и лишних пробелов.
// Пустой needle не совпадает ни с чем.
func Contains(haystack, needle string) bool {
	needle = Fold(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(Fold(haystack), needle)
}

// TruncatePreview обрезает текст до max символов по границе слова
func TruncatePreview(text string, max int) string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}

	// Оставляем место под "…"
	truncated := string(runes[:max-1])
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > 0 {
		return truncated[:lastSpace] + "…"
	}

	return truncated + "…"
}
