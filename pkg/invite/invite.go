// Package invite builds the interest-link message sent to a referred prospect.
package invite

import (
	"fmt"
	"net/url"
	"strings"
)

const EmailSubject = "NCF Seguros - Proposta Especial"

// Message is the text delivered to the prospect by email or WhatsApp.
func Message(prospectName, formURL string) string {
	return fmt.Sprintf("Olá %s, parabéns! Você foi indicado(a) por um amigo para conhecer as vantagens exclusivas da NCF Seguros. "+
		"Clique no link para solicitar sua cotação: %s", prospectName, formURL)
}

// NormalizePhone keeps only digits and prefixes countryCode when it is missing.
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" || strings.HasPrefix(digits, countryCode) {
		return digits
	}
	return countryCode + digits
}

// WhatsAppLink returns a click-to-chat link, or "" when phone has no digits.
func WhatsAppLink(phone, countryCode, message string) string {
	p := NormalizePhone(phone, countryCode)
	if p == "" {
		return ""
	}
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://api.whatsapp.com/send?phone=" + p + "&text=" + text
}
