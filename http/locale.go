package http

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 页面支持的语言，第一个为默认
var supportedLanguages = []language.Tag{
	language.Indonesian,
	language.English,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// localeFor 根据Accept-Language选择页面语言与数字格式
func localeFor(acceptLanguage string) (language.Tag, *message.Printer) {
	tag := supportedLanguages[0]
	if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
		_, idx, _ := languageMatcher.Match(tags...)
		tag = supportedLanguages[idx]
	}
	return tag, message.NewPrinter(tag)
}

func formatPercent(p *message.Printer, value float64) string {
	return p.Sprintf("%.2f%%", value)
}
