package telegram

import (
	"strings"
	"unicode/utf16"
)

// MaxMessageLength is the Bot API limit for sendMessage text.
const MaxMessageLength = 4096

var markdownV2Escaper = strings.NewReplacer(
	`\`, `\\`,
	`_`, `\_`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`~`, `\~`,
	"`", "\\`",
	`>`, `\>`,
	`#`, `\#`,
	`+`, `\+`,
	`-`, `\-`,
	`=`, `\=`,
	`|`, `\|`,
	`{`, `\{`,
	`}`, `\}`,
	`.`, `\.`,
	`!`, `\!`,
)

var codeEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
)

// EscapeMarkdownV2 escapes text placed outside of entities.
func EscapeMarkdownV2(s string) string {
	return markdownV2Escaper.Replace(s)
}

// EscapeCode escapes text placed inside a `code` or ```pre``` entity.
func EscapeCode(s string) string {
	return codeEscaper.Replace(s)
}

// MessageLength counts s the way the Bot API does, in UTF-16 code units.
// Escape backslashes are counted too, so the result is an upper bound.
func MessageLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
