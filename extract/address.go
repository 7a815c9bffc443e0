package extract

import "strings"

// 地址中统一替换为分隔符的标点
const addressSeparators = "-/;|.,"

// 倒序后各部分的固定位置：州、城市、街区、门牌号，街道名总是最后一个
const (
	tokenNeighborhood = 2
	tokenNumber       = 3
)

// Address 是按分隔符切分并倒序后的地址片段
type Address struct {
	Tokens []string
}

/*
输入原始地址文本，输出倒序的地址片段

将 - / ; | . , 统一替换为逗号后切分，去掉片段首尾空白，再倒序，例如
"Rua Bocaiúva, 2125 - Centro, Florianópolis - SC" -> [SC Florianópolis Centro 2125 Rua Bocaiúva]

该启发式依赖固定位置，地址格式变化时结果可能错位，所有地址派生字段只通过这里取值
*/
func SplitAddress(raw string) Address {
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(addressSeparators, r) {
			return ','
		}
		return r
	}, raw)
	parts := strings.Split(mapped, ",")
	tokens := make([]string, len(parts))
	for i, p := range parts {
		tokens[len(parts)-1-i] = strings.TrimSpace(p)
	}
	return Address{Tokens: tokens}
}

func (a Address) token(i int) (string, error) {
	if i < 0 || i >= len(a.Tokens) {
		return "", ErrTokenIndex
	}
	if a.Tokens[i] == "" {
		return "", ErrEmptyValue
	}
	return a.Tokens[i], nil
}

// Neighborhood 取倒序后的第三个片段
func (a Address) Neighborhood() (string, error) {
	return a.token(tokenNeighborhood)
}

// Street 取最后一个片段；最后一个片段就是街区或更靠前的位置时地址中没有街道
func (a Address) Street() (string, error) {
	if len(a.Tokens) <= tokenNeighborhood+1 {
		return "", ErrTokenIndex
	}
	return a.token(len(a.Tokens) - 1)
}

// Number 取倒序后第四个片段中的数字，该位置就是街道名时不取
func (a Address) Number() (int64, error) {
	if tokenNumber >= len(a.Tokens)-1 {
		return 0, ErrTokenIndex
	}
	t, err := a.token(tokenNumber)
	if err != nil {
		return 0, err
	}
	return parseInt(digits(t))
}
