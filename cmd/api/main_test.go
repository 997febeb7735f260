package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/wolfman30/vendor-inquiry/internal/api/router"
	appconfig "github.com/wolfman30/vendor-inquiry/internal/config"
	httpmiddleware "github.com/wolfman30/vendor-inquiry/internal/http/middleware"
	"github.com/wolfman30/vendor-inquiry/internal/notify"
	"github.com/wolfman30/vendor-inquiry/pkg/logging"
)

func TestSetupMetricsExposesIntakeCounters(t *testing.T) {
	handler, m := setupMetrics(true)
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveIntake("Caterers", "created", 0.01)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "vendor_inquiry_intake_inquiries_total") {
		t.Fatalf("expected intake counter to be exported")
	}
}

func TestSetupMetricsDisabled(t *testing.T) {
	handler, m := setupMetrics(false)
	if handler != nil {
		t.Fatalf("expected nil handler when metrics are disabled")
	}
	if m == nil {
		t.Fatalf("expected metrics to still be recorded")
	}
}

func TestBuildLimiterInProcess(t *testing.T) {
	cfg := &appconfig.Config{RateLimitPerMinute: 5}
	checks := map[string]router.ReadinessCheck{}

	limiter, closeFn, err := buildLimiter(cfg, logging.New("error"), checks)
	if err != nil {
		t.Fatalf("build limiter: %v", err)
	}
	defer closeFn()

	if _, ok := limiter.(*httpmiddleware.RateLimiter); !ok {
		t.Fatalf("expected in-process limiter, got %T", limiter)
	}
	if len(checks) != 0 {
		t.Fatalf("expected no readiness checks, got %v", checks)
	}
}

func TestBuildLimiterRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr(), RateLimitPerMinute: 5}
	checks := map[string]router.ReadinessCheck{}

	limiter, closeFn, err := buildLimiter(cfg, logging.New("error"), checks)
	if err != nil {
		t.Fatalf("build limiter: %v", err)
	}
	defer closeFn()

	if _, ok := limiter.(*httpmiddleware.RedisRateLimiter); !ok {
		t.Fatalf("expected redis limiter, got %T", limiter)
	}
	check, ok := checks["redis"]
	if !ok {
		t.Fatalf("expected redis readiness check")
	}
	if err := check(context.Background()); err != nil {
		t.Fatalf("redis check: %v", err)
	}
}

func TestBuildLimiterRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, _, err := buildLimiter(&appconfig.Config{RedisAddr: addr}, logging.New("error"), map[string]router.ReadinessCheck{})
	if err == nil {
		t.Fatalf("expected error for unreachable redis")
	}
}

func TestBuildEmailSender(t *testing.T) {
	tests := []struct {
		name string
		cfg  appconfig.Config
		want string
	}{
		{name: "stub by default", cfg: appconfig.Config{NotifyEmailProvider: "stub"}, want: "*notify.StubEmailSender"},
		{name: "sendgrid with key", cfg: appconfig.Config{NotifyEmailProvider: "sendgrid", SendGridAPIKey: "k", SendGridFromEmail: "ops@example.com"}, want: "*notify.SendGridSender"},
		{name: "sendgrid without key", cfg: appconfig.Config{NotifyEmailProvider: "sendgrid"}, want: "*notify.StubEmailSender"},
		{name: "ses without sender", cfg: appconfig.Config{NotifyEmailProvider: "ses"}, want: "*notify.StubEmailSender"},
		{name: "unknown provider", cfg: appconfig.Config{NotifyEmailProvider: "pigeon"}, want: "*notify.StubEmailSender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, err := buildEmailSender(context.Background(), &tt.cfg, logging.New("error"))
			if err != nil {
				t.Fatalf("build sender: %v", err)
			}
			if got := fmt.Sprintf("%T", sender); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBuildEmailSenderSES(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/missing-config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/missing-credentials")

	cfg := &appconfig.Config{
		NotifyEmailProvider: "ses",
		SESFromEmail:        "ops@example.com",
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "AKIDEXAMPLE",
		AWSSecretAccessKey:  "secret",
		AWSEndpointOverride: "http://localhost:4566",
	}
	sender, err := buildEmailSender(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("build sender: %v", err)
	}
	if _, ok := sender.(*notify.SESSender); !ok {
		t.Fatalf("expected SES sender, got %T", sender)
	}
}

func TestSESConfigUsesSESSenderName(t *testing.T) {
	cfg := &appconfig.Config{
		SendGridFromName: "SendGrid Desk",
		SESFromEmail:     "ops@example.com",
		SESFromName:      "SES Desk",
	}
	got := sesConfig(cfg)
	if got.FromEmail != "ops@example.com" || got.FromName != "SES Desk" {
		t.Fatalf("unexpected SES config %+v", got)
	}
}
