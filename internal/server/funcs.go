package server

import (
	"html/template"
	"time"

	"office-portal/internal/forms"

	"gorm.io/datatypes"
)

// maskDocument оставляет видимыми только последние символы номера документа
// (паспорт, диплом) в списках.
func maskDocument(doc string) string {
	runes := []rune(doc)
	n := len(runes)
	if n <= 4 {
		return "***"
	}
	masked := make([]rune, n)
	for i := range runes {
		if i >= n-3 || runes[i] == ' ' {
			masked[i] = runes[i]
		} else {
			masked[i] = '*'
		}
	}
	return string(masked)
}

// formatDate понимает datatypes.Date, *datatypes.Date и time.Time; nil даёт пустую строку.
func formatDate(v interface{}) string {
	switch d := v.(type) {
	case datatypes.Date:
		return time.Time(d).Format(forms.DateLayout)
	case *datatypes.Date:
		if d == nil {
			return ""
		}
		return time.Time(*d).Format(forms.DateLayout)
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format("2006-01-02 15:04")
	case *time.Time:
		if d == nil || d.IsZero() {
			return ""
		}
		return d.Format("2006-01-02 15:04")
	}
	return ""
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"eq":           func(a, b interface{}) bool { return a == b },
		"maskDocument": maskDocument,
		"date":         formatDate,
	}
}
