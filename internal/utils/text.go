package utils

import "strings"

// Truncate 按字符（rune）截断，不切断多字节字符
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// NormalizeSpace 把连续空白压缩成单个空格并去掉首尾空白
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Snippet 截断后把换行替换成空格
func Snippet(s string, n int) string {
	return strings.ReplaceAll(Truncate(s, n), "\n", " ")
}

// NonEmptyLines 拆分多行文本，返回去掉首尾空白后的非空行
func NonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
