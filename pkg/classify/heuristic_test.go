package classify

import (
	"context"
	"testing"
)

func TestHeuristic_NoReplyLocalPart(t *testing.T) {
	h := NewHeuristicClassifier()
	if !h.Classify(context.Background(), "noreply@service.com", "", nil) {
		t.Error("noreply@service.com should classify as automated")
	}
}

func TestHeuristic_PlainHumanAddress(t *testing.T) {
	h := NewHeuristicClassifier()
	if h.Classify(context.Background(), "jane.doe@gmail.com", "Jane Doe", nil) {
		t.Error("jane.doe@gmail.com with no automated signals should classify as human")
	}
}

func TestHeuristic_PrivacyRelayDomain(t *testing.T) {
	h := NewHeuristicClassifier()
	if !h.Classify(context.Background(), "abc123xyz@privaterelay.appleid.com", "Jane", nil) {
		t.Error("privacy-relay address should classify as automated")
	}
}

func TestHeuristic_DisplayNamePhrases(t *testing.T) {
	cases := []struct {
		name      string
		automated bool
	}{
		{"GitHub (Do Not Reply)", true},
		{"Automated Billing System", true},
		{"Jane Doe", false},
		{"", false},
	}
	h := NewHeuristicClassifier()
	for _, tc := range cases {
		got := h.Classify(context.Background(), "someone@example.com", tc.name, nil)
		if got != tc.automated {
			t.Errorf("display name %q: automated = %v, want %v", tc.name, got, tc.automated)
		}
	}
}

func TestHeuristic_LocalPartTokens(t *testing.T) {
	cases := []struct {
		email     string
		automated bool
	}{
		{"bounce@lists.example.com", true},
		{"mailer-daemon@example.com", true},
		{"github-noreply@github.com", true},
		{"noreply123@shop.example", true},
		{"alerts@monitoring.example", true},
		{"jane.doe-smith@example.com", false},
		{"renotify.jones@example.com", false},
	}
	h := NewHeuristicClassifier()
	for _, tc := range cases {
		got := h.Classify(context.Background(), tc.email, "", nil)
		if got != tc.automated {
			t.Errorf("%s: automated = %v, want %v", tc.email, got, tc.automated)
		}
	}
}

func TestHeuristic_RoleAddresses(t *testing.T) {
	for _, email := range []string{"info@acme.com", "support@acme.com", "sales@acme.com"} {
		h := NewHeuristicClassifier()
		if !h.Classify(context.Background(), email, "", nil) {
			t.Errorf("%s should classify as automated", email)
		}
	}
}

func TestHeuristic_Headers(t *testing.T) {
	cases := []struct {
		label     string
		headers   map[string]string
		automated bool
	}{
		{"list-unsubscribe", map[string]string{"List-Unsubscribe": "<mailto:u@x.com>"}, true},
		{"precedence bulk", map[string]string{"Precedence": "bulk"}, true},
		{"auto-submitted auto-generated", map[string]string{"Auto-Submitted": "auto-generated"}, true},
		{"auto-submitted no", map[string]string{"Auto-Submitted": "no"}, false},
		{"unrelated header", map[string]string{"X-Mailer": "Outlook"}, false},
	}
	h := NewHeuristicClassifier()
	for _, tc := range cases {
		got := h.Classify(context.Background(), "jane@corp.example", "Jane", &Metadata{Headers: tc.headers})
		if got != tc.automated {
			t.Errorf("%s: automated = %v, want %v", tc.label, got, tc.automated)
		}
	}
}

func TestHeuristic_BulkAndDisposableDomains(t *testing.T) {
	for _, email := range []string{"digest-sender@substack.com", "x@mailinator.com", "promo-team@sendgrid.net"} {
		h := NewHeuristicClassifier()
		if !h.Classify(context.Background(), email, "", nil) {
			t.Errorf("%s should classify as automated", email)
		}
	}
}

func TestHeuristic_UnparseableAddress(t *testing.T) {
	h := NewHeuristicClassifier()
	if !h.Classify(context.Background(), "not-an-address", "", nil) {
		t.Error("unparseable address should classify as automated")
	}
}
