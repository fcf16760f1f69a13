package chat

import "strings"

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes &, < and > for the transport's HTML parse mode.
// Telegram accepts only a small tag whitelist, so everything user- or
// model-produced must be escaped before markup is added around it.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
