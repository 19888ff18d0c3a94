package logging

import (
	"log/slog"
	"testing"
)

func TestMaskFieldRedactsUnlistedKeys(t *testing.T) {
	if got := MaskField("jwt_secret", "s3cr3t"); got.Value.String() != RedactedValue {
		t.Fatalf("expected secret to be redacted, got %q", got.Value.String())
	}
	if got := MaskField("method", "/rewards.v1.RewardsService/Claim"); got.Value.String() == RedactedValue {
		t.Fatalf("allowlisted key was redacted")
	}
	if got := MaskField("token", " "); got.Value.String() != " " {
		t.Fatalf("blank values should pass through, got %q", got.Value.String())
	}
}

func TestMaskDSNHidesPasswords(t *testing.T) {
	cases := []struct{ dsn, want string }{
		{"postgres://rewards:hunter2@db:5432/receipts?sslmode=disable", "postgres://rewards:" + RedactedValue + "@db:5432/receipts?sslmode=disable"},
		{"postgres://db/receipts?password=hunter2", "postgres://db/receipts?password=" + RedactedValue},
		{"host=db user=rewards password=hunter2 dbname=receipts", "host=db user=rewards password=" + RedactedValue + " dbname=receipts"},
		{"data/rewardsd-receipts.db", "data/rewardsd-receipts.db"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := MaskDSN("receipts_dsn", tc.dsn).Value.String(); got != tc.want {
			t.Fatalf("MaskDSN(%q) = %q, want %q", tc.dsn, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
