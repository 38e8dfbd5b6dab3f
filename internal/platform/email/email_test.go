package email

import (
	"strings"
	"testing"
	"time"

	"appraisal/internal/platform/config"
)

func TestBuildMessageShapesNotificationMirror(t *testing.T) {
	sentAt := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	msg := string(buildMessage("hr@corp.test", "dev@corp.test", "Revision requested", "Please revisit goal 3.", sentAt))

	if !strings.Contains(msg, "Subject: [Appraisal] Revision requested\r\n") {
		t.Fatalf("subject not prefixed:\n%s", msg)
	}
	if !strings.Contains(msg, "Date: Mon, 02 Mar 2026 09:30:00 +0000\r\n") {
		t.Fatalf("date header missing:\n%s", msg)
	}
	if !strings.Contains(msg, "Respond through the evaluation portal") {
		t.Fatal("footer missing")
	}
}

func TestBuildMessageFlattensSubject(t *testing.T) {
	msg := string(buildMessage("hr@corp.test", "dev@corp.test", "line one\r\nBcc: sneak@evil.test", "body", time.Now()))

	if strings.Contains(msg, "Bcc:") {
		t.Fatalf("injected header survived:\n%s", msg)
	}
	if !strings.Contains(msg, "Subject: [Appraisal] line one Bcc") {
		t.Fatalf("subject not flattened:\n%s", msg)
	}
}

func TestNewFallsBackToNoopWhenUnconfigured(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false, SMTPHost: "smtp.corp.test"})
	if _, ok := mailer.(noopMailer); !ok {
		t.Fatalf("mailer = %T, want noop", mailer)
	}
}
