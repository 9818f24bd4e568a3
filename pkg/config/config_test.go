package config

import (
	"testing"
	"time"
)

func TestGetListSplitsAndTrims(t *testing.T) {
	t.Setenv("RECIPE_TEST_LIST", " http://a.test , ,http://b.test")
	got := GetList("RECIPE_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestGetListFallsBackWhenEmpty(t *testing.T) {
	t.Setenv("RECIPE_TEST_LIST", " , ")
	got := GetList("RECIPE_TEST_LIST", []string{"*"})
	if len(got) != 1 || got[0] != "*" {
		t.Fatalf("expected fallback, got %v", got)
	}
}

func TestGetDurationRejectsNegative(t *testing.T) {
	t.Setenv("RECIPE_TEST_WAIT", "-3")
	if got := GetDuration("RECIPE_TEST_WAIT", 5*time.Second); got != 5*time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
	t.Setenv("RECIPE_TEST_WAIT", "12")
	if got := GetDuration("RECIPE_TEST_WAIT", 5*time.Second); got != 12*time.Second {
		t.Fatalf("expected 12s, got %v", got)
	}
}

func TestLoadAPIConfigDefaults(t *testing.T) {
	t.Setenv("API_ADDR", ":9000")
	t.Setenv("STORAGE_BACKEND", "S3")
	cfg := LoadAPIConfig()
	if cfg.Addr != ":9000" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.StorageBackend != "s3" {
		t.Fatalf("expected lower-cased backend, got %q", cfg.StorageBackend)
	}
	if cfg.MediaURL != "/media/" {
		t.Fatalf("unexpected media url %q", cfg.MediaURL)
	}
}
