package config

import "testing"

func TestParseCSV(t *testing.T) {
	got := parseCSV("a, b, ,c,,")
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected values: %#v", got)
	}
}

func TestSetCSVFromList(t *testing.T) {
	var dst []string
	if ok := setCSV(&dst, []any{"x", " ", "y"}); !ok {
		t.Fatalf("expected list form to be accepted")
	}
	if len(dst) != 2 || dst[0] != "x" || dst[1] != "y" {
		t.Fatalf("unexpected values: %#v", dst)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("PORT", "")

	cfg, problems := Load("api", 8080)
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %#v", problems)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.ResyncIntervalSec != 30 {
		t.Fatalf("expected default resync interval 30, got %d", cfg.ResyncIntervalSec)
	}
	if cfg.HargaPertalite != 10000 || cfg.HargaPertamax != 13500 {
		t.Fatalf("unexpected default prices: %d / %d", cfg.HargaPertalite, cfg.HargaPertamax)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("RESYNC_INTERVAL_SECONDS", "10")
	t.Setenv("HARGA_PERTALITE", "12500")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, problems := Load("api", 8080)
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %#v", problems)
	}
	if cfg.ResyncIntervalSec != 10 {
		t.Fatalf("expected resync interval 10, got %d", cfg.ResyncIntervalSec)
	}
	if cfg.HargaPertalite != 12500 {
		t.Fatalf("expected pertalite price 12500, got %d", cfg.HargaPertalite)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers: %#v", cfg.KafkaBrokers)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", "")
	t.Setenv("HTTP_PORT", "70000")

	cfg, problems := Load("api", 8080)
	if len(problems) == 0 {
		t.Fatalf("expected a problem for out-of-range port")
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected fallback to default port, got %d", cfg.HTTPPort)
	}
}
