package services

import (
	"strings"
	"testing"
)

func TestExpiryNotice(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		expTitle  string
		expType   string
	}{
		{
			name:      "lapsed subscription",
			remaining: -1,
			expTitle:  "Subscription expired",
			expType:   "error",
		},
		{
			name:      "expires today",
			remaining: 0,
			expTitle:  "Subscription expires today",
			expType:   "warning",
		},
		{
			name:      "expires in a week",
			remaining: 7,
			expTitle:  "Subscription expiring soon",
			expType:   "warning",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			title, message, ntype := expiryNotice("Pro", tc.remaining)
			if title != tc.expTitle {
				t.Fatalf("expected title %q, got %q", tc.expTitle, title)
			}
			if ntype != tc.expType {
				t.Fatalf("expected type %q, got %q", tc.expType, ntype)
			}
			if !strings.Contains(message, "Pro") {
				t.Fatalf("message should mention the plan name: %q", message)
			}
		})
	}
}
