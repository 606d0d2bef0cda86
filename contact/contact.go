// Package contact mines contact channels out of unstructured profile text.
//
// The extraction rules are a fixed policy: they are deliberately heuristic
// (a long digit run in a caption counts as a phone number) and any rule
// change is a behavior change, not a bug fix.
package contact

import (
	"regexp"
	"strings"

	"github.com/tagnet-dev/tagnet/profile"
)

var (
	// Deep links like https://wa.me/79991234567, api.whatsapp.com/send?phone=...
	whatsappRe = regexp.MustCompile(`(?i)(?:[a-z][a-z0-9+.-]*://)?(?:api\.)?(?:wa\.me|whatsapp\.com)/(?:send/?)?(?:\?phone=)?\+?(\d+)`)

	// Ten or more digits, optionally separated by single spaces or hyphens,
	// with an optional leading plus.
	phoneRe = regexp.MustCompile(`\+?\d(?:[ \-]?\d){9,}`)

	// t.me / telegram.me profile URLs, kept verbatim (minus the scheme).
	telegramURLRe = regexp.MustCompile(`(?i)(?:https?://)?(?:t\.me|telegram\.me)/[A-Za-z0-9_]+`)

	// telegram:/tg:/@ prefixed handle mentions. The keyword is matched
	// case-insensitively, the handle is preserved as written.
	telegramMentionRe = regexp.MustCompile(`(?i)(?:telegram:|tg:|@)\s?([A-Za-z][A-Za-z0-9_]{3,})`)

	nonDigitRe = regexp.MustCompile(`\D`)
)

// Extract pulls WhatsApp numbers, Telegram links and generic phone numbers
// from text. It is a pure function: callers compose the input (biography,
// external URL, business phone, captions) however they like. Text with no
// matches yields three empty sets.
func Extract(text string) profile.ContactInfo {
	info := profile.ContactInfo{
		WhatsAppNumbers: []string{},
		TelegramLinks:   []string{},
		PhoneNumbers:    []string{},
	}

	whatsapp := make(map[string]bool)
	for _, m := range whatsappRe.FindAllStringSubmatch(text, -1) {
		number := m[1]
		if !whatsapp[number] {
			whatsapp[number] = true
			info.WhatsAppNumbers = append(info.WhatsAppNumbers, number)
		}
	}

	// Generic phone runs over the same text; WhatsApp-sourced numbers take
	// precedence and are excluded from the generic set.
	seenPhones := make(map[string]bool)
	for _, m := range phoneRe.FindAllString(text, -1) {
		digits := nonDigitRe.ReplaceAllString(m, "")
		if len(digits) < 10 || whatsapp[digits] || seenPhones[digits] {
			continue
		}
		seenPhones[digits] = true
		info.PhoneNumbers = append(info.PhoneNumbers, digits)
	}

	seenLinks := make(map[string]bool)
	addLink := func(link string) {
		if !seenLinks[link] {
			seenLinks[link] = true
			info.TelegramLinks = append(info.TelegramLinks, link)
		}
	}
	for _, m := range telegramURLRe.FindAllString(text, -1) {
		addLink(stripScheme(m))
	}
	for _, m := range telegramMentionRe.FindAllStringSubmatch(text, -1) {
		addLink("t.me/" + m[1])
	}

	return info
}

func stripScheme(link string) string {
	if i := strings.Index(link, "://"); i >= 0 {
		return link[i+3:]
	}
	return link
}
