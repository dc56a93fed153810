package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "STORAGE_MODE", "MONGO_URI", "KAFKA_BROKERS", "RETRY_BACKOFF", "REDIS_DB", "RESCORE_CONCURRENCY"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageMode != StorageMemory || cfg.HTTPAddr != ":8080" || cfg.MongoDB != "cleanmarket" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	want := []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}
	if !reflect.DeepEqual(cfg.RetryBackoff, want) {
		t.Fatalf("RetryBackoff = %v, want %v", cfg.RetryBackoff, want)
	}
	if cfg.KafkaBrokers != nil {
		t.Fatalf("expected no brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.RescoreConcurrency != 4 || cfg.SlotLockTTL != 10*time.Second {
		t.Fatalf("unexpected rescoring/lock defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_MODE", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RETRY_BACKOFF", "2s, ,10s")
	t.Setenv("RESCORE_INTERVAL", "6h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageMode != StorageMongo {
		t.Fatalf("StorageMode = %q", cfg.StorageMode)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Fatalf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.RedisDB != 3 || cfg.RescoreInterval != 6*time.Hour {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.RetryBackoff, []time.Duration{2 * time.Second, 10 * time.Second}) {
		t.Fatalf("RetryBackoff = %v", cfg.RetryBackoff)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "mongo without uri", env: map[string]string{"STORAGE_MODE": "mongo", "MONGO_URI": ""}, want: "MONGO_URI"},
		{name: "unknown storage", env: map[string]string{"STORAGE_MODE": "sqlite"}, want: "STORAGE_MODE"},
		{name: "bad duration", env: map[string]string{"STORAGE_MODE": "", "SLOT_LOCK_TTL": "soon"}, want: "SLOT_LOCK_TTL"},
		{name: "bad backoff", env: map[string]string{"STORAGE_MODE": "", "RETRY_BACKOFF": "1s,later"}, want: "RETRY_BACKOFF"},
		{name: "bad integer", env: map[string]string{"STORAGE_MODE": "", "REDIS_DB": "x"}, want: "REDIS_DB"},
		{name: "zero concurrency", env: map[string]string{"STORAGE_MODE": "", "RESCORE_CONCURRENCY": "0"}, want: "RESCORE_CONCURRENCY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
