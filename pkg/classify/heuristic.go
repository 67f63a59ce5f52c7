package classify

import (
	"context"
	"strings"
)

// automatedNamePhrases flag display names like "GitHub (Do Not Reply)".
var automatedNamePhrases = []string{
	"do not reply",
	"do-not-reply",
	"donotreply",
	"no reply",
	"no-reply",
	"noreply",
	"automated",
	"auto-reply",
	"autoreply",
	"system",
	"notification",
	"mailer",
}

// automatedLocalTokens match the local part of known machine senders.
var automatedLocalTokens = []string{
	"noreply",
	"no-reply",
	"no_reply",
	"donotreply",
	"do-not-reply",
	"bounce",
	"bounces",
	"mailer-daemon",
	"mailerdaemon",
	"postmaster",
	"notification",
	"notifications",
	"notify",
	"alert",
	"alerts",
	"digest",
	"newsletter",
	"newsletters",
	"updates",
	"news",
	"marketing",
	"promo",
	"promotions",
	"feedback",
	"survey",
	"receipts",
	"billing",
	"invoice",
	"invoices",
	"reminder",
	"reminders",
	"calendar-notification",
	"unsubscribe",
}

// roleLocalParts are generic role inboxes, not people.
var roleLocalParts = map[string]struct{}{
	"info":       {},
	"support":    {},
	"sales":      {},
	"admin":      {},
	"contact":    {},
	"hello":      {},
	"help":       {},
	"office":     {},
	"team":       {},
	"hr":         {},
	"careers":    {},
	"jobs":       {},
	"press":      {},
	"media":      {},
	"legal":      {},
	"security":   {},
	"abuse":      {},
	"webmaster":  {},
	"accounts":   {},
	"service":    {},
	"enquiries":  {},
	"inquiries":  {},
	"recruiting": {},
}

// bulkMailDomains are sending domains of bulk/transactional mail platforms
// and well known disposable-address services.
var bulkMailDomains = map[string]struct{}{
	"mailchimp.com":          {},
	"mcsv.net":               {},
	"rsgsv.net":              {},
	"sendgrid.net":           {},
	"mailgun.org":            {},
	"mailgun.net":            {},
	"amazonses.com":          {},
	"sparkpostmail.com":      {},
	"constantcontact.com":    {},
	"hubspotemail.net":       {},
	"marketo.com":            {},
	"exacttarget.com":        {},
	"salesforce.com":         {},
	"substack.com":           {},
	"mailjet.com":            {},
	"sendinblue.com":         {},
	"brevo.com":              {},
	"intercom-mail.com":      {},
	"postmarkapp.com":        {},
	"mailinator.com":         {},
	"guerrillamail.com":      {},
	"10minutemail.com":       {},
	"tempmail.com":           {},
	"temp-mail.org":          {},
	"yopmail.com":            {},
	"sharklasers.com":        {},
	"getnada.com":            {},
	"dispostable.com":        {},
	"trashmail.com":          {},
	"throwawaymail.com":      {},
}

// privacyRelayDomains hide the real mailbox behind a forwarding alias.
// Treated as automated: there is no contactable identity behind them.
var privacyRelayDomains = map[string]struct{}{
	"privaterelay.appleid.com": {},
	"relay.firefox.com":        {},
	"mozmail.com":              {},
	"duck.com":                 {},
	"simplelogin.co":           {},
	"simplelogin.com":          {},
	"aleeas.com":               {},
	"slmail.me":                {},
	"anonaddy.me":              {},
	"anonaddy.com":             {},
	"addy.io":                  {},
	"passmail.net":             {},
	"passinbox.com":            {},
	"icloud.com.invalid":       {},
}

// HeuristicClassifier is the rule-based terminal step of the classifier
// chain. Rules are evaluated in a fixed order; the first one that fires
// decides.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// Classify reports whether the address looks automated. It never fails.
func (h *HeuristicClassifier) Classify(_ context.Context, email, displayName string, meta *Metadata) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	local, domain, ok := splitAddress(email)
	if !ok {
		// Unparseable addresses are not people we can contact.
		return true
	}

	if nameLooksAutomated(displayName) {
		return true
	}

	if localHasAutomatedToken(local) {
		return true
	}

	if _, isRole := roleLocalParts[local]; isRole {
		return true
	}

	if meta != nil && headersLookAutomated(meta.Headers) {
		return true
	}

	if _, isBulk := bulkMailDomains[domain]; isBulk {
		return true
	}

	if _, isRelay := privacyRelayDomains[domain]; isRelay {
		return true
	}

	return false
}

func splitAddress(email string) (local, domain string, ok bool) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", false
	}
	return email[:at], email[at+1:], true
}

func nameLooksAutomated(displayName string) bool {
	name := strings.ToLower(displayName)
	if name == "" {
		return false
	}
	for _, phrase := range automatedNamePhrases {
		if strings.Contains(name, phrase) {
			return true
		}
	}
	return false
}

func localHasAutomatedToken(local string) bool {
	// Tokens match on the separator-split pieces of the local part, so
	// "github-noreply" fires but "renotify-jones" does not.
	pieces := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == '+'
	})
	for _, piece := range pieces {
		for _, token := range automatedLocalTokens {
			if piece == token {
				return true
			}
		}
	}
	// A few tokens are unambiguous even embedded, e.g. "noreply123".
	for _, token := range []string{"noreply", "donotreply", "mailer-daemon"} {
		if strings.Contains(local, token) {
			return true
		}
	}
	return false
}

func headersLookAutomated(headers map[string]string) bool {
	if len(headers) == 0 {
		return false
	}
	for key, value := range headers {
		switch strings.ToLower(key) {
		case "list-unsubscribe":
			return true
		case "precedence":
			v := strings.ToLower(strings.TrimSpace(value))
			if v == "bulk" || v == "list" || v == "junk" {
				return true
			}
		case "auto-submitted":
			v := strings.ToLower(strings.TrimSpace(value))
			if v != "" && v != "no" {
				return true
			}
		}
	}
	return false
}
