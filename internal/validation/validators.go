// Package validation cleans and validates the contact data pulled from
// listings before it is persisted or emailed.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/miekg/dns"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-().]{7,20}$`)
	digitPattern = regexp.MustCompile(`\d`)
)

// personalEmailDomains are free-mail providers excluded from outreach.
var personalEmailDomains = map[string]struct{}{
	"gmail.com":      {},
	"yahoo.com":      {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"aol.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"live.com":       {},
	"msn.com":        {},
	"protonmail.com": {},
	"mail.com":       {},
}

// mxResolvers are the DNS servers consulted for deliverability checks.
var mxResolvers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// CleanEmail normalizes an email address and validates its shape. Personal
// free-mail domains are rejected unless allowPersonal is set.
func CleanEmail(raw string, allowPersonal bool) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	email = strings.TrimPrefix(email, "mailto:")
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	if !emailPattern.MatchString(email) {
		return "", fmt.Errorf("invalid email format: %s", raw)
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	if !allowPersonal {
		if _, personal := personalEmailDomains[domain]; personal {
			return "", fmt.Errorf("personal email domain not allowed: %s", domain)
		}
	}
	return email, nil
}

// HasMXRecords reports whether the email's domain publishes MX records.
// Best effort: resolver trouble reads as "no records".
func HasMXRecords(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return false
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(parts[1]), dns.TypeMX)
	msg.RecursionDesired = true

	client := new(dns.Client)
	for _, server := range mxResolvers {
		if resp, _, err := client.Exchange(msg, server); err == nil {
			if resp != nil && resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0 {
				return true
			}
		}
	}
	return false
}

// CleanPhone normalizes a phone number, stripping tel: prefixes and
// rejecting strings that do not plausibly contain one.
func CleanPhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	phone = strings.TrimPrefix(phone, "tel:")
	if phone == "" {
		return "", fmt.Errorf("phone is required")
	}
	if !phonePattern.MatchString(phone) {
		return "", fmt.Errorf("invalid phone format: %s", raw)
	}
	if len(digitPattern.FindAllString(phone, -1)) < 7 {
		return "", fmt.Errorf("too few digits for a phone number: %s", raw)
	}
	return phone, nil
}

// CleanURL normalizes a website URL, defaulting the scheme to https.
func CleanURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(strings.ToLower(u), "http://") &&
		!strings.HasPrefix(strings.ToLower(u), "https://") {
		u = "https://" + strings.TrimLeft(u, "/")
	}
	if strings.ContainsAny(u, " \t") {
		return "", fmt.Errorf("invalid url: %s", raw)
	}
	return u, nil
}
