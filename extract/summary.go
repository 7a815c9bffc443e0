package extract

import (
	"fmt"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

/*
输入整页文档和XPath表达式，输出门户宣称的结果总数

结果数形如"1.234"，去掉千分位后转为整数；找不到节点时返回ErrMissingElement
*/
func ResultCount(doc *html.Node, expr string) (int, error) {
	node, err := htmlquery.Query(doc, expr)
	if err != nil {
		return 0, fmt.Errorf("result count xpath: %w", err)
	}
	if node == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingElement, expr)
	}
	n, err := parseInt(digits(htmlquery.InnerText(node)))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
