package sparql

import (
	"bytes"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxErrMessage = 300

// summarizeErrorBody 从非 2xx 响应体中提取一行可读说明。
//
// - HTML（限流页/网关错误页）：优先 <title>，其次正文文本
// - 其他：取原文（Blazegraph 的错误通常是纯文本堆栈，只保留开头）
func summarizeErrorBody(contentType string, body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	if isHTML(contentType, body) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err == nil {
			if t := normSpace(doc.Find("title").First().Text()); t != "" {
				return truncate(t, maxErrMessage)
			}
			doc.Find("script, style").Remove()
			if t := normSpace(doc.Find("body").Text()); t != "" {
				return truncate(t, maxErrMessage)
			}
		}
	}
	return truncate(normSpace(string(body)), maxErrMessage)
}

func isHTML(contentType string, body []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if mt == "text/html" || mt == "application/xhtml+xml" {
			return true
		}
		if mt != "" && mt != "application/octet-stream" {
			return false
		}
	}
	// Content-Type 缺失时退化为嗅探。
	head := strings.ToLower(string(body[:min(len(body), 64)]))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// 按 rune 边界截断，避免输出半个 UTF-8 字符。
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
