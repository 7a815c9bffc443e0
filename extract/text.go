package extract

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// 折叠空白并去掉首尾空白
func cleanText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// 只保留ASCII数字
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// 去掉前导空白后连续的数字，例如"2 Quartos" -> "2"
func leadingDigits(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

func parseInt(d string) (int64, error) {
	if d == "" {
		return 0, ErrNoDigits
	}
	n, err := strconv.ParseInt(d, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCoercion, err)
	}
	return n, nil
}

/*
输入一段金额文本，输出数值

去掉货币符号和千分位点，逗号之后视为小数部分，"/"之后的计费周期被忽略，例如"R$ 1.500,50 /mês" -> 1500.5
*/
func parseAmount(s string) (float64, error) {
	s, _, _ = strings.Cut(s, "/")
	s = strings.ReplaceAll(s, "R$", "")
	whole, frac, _ := strings.Cut(s, ",")
	w := digits(whole)
	if w == "" {
		return 0, ErrNoDigits
	}
	num := w
	if f := digits(frac); f != "" {
		num += "." + f
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCoercion, err)
	}
	return v, nil
}
