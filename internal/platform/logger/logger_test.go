package logger

import (
	"strings"
	"testing"
)

func redactingLogger(t *testing.T) *Logger {
	t.Helper()
	log, err := NewWithOptions("production", Options{Redact: true})
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	return log
}

func TestSanitizeRedactsCredentialKeys(t *testing.T) {
	log := redactingLogger(t)
	kv := log.sanitizeKVs([]interface{}{
		"token", "mapi_supersecret",
		"password", "hunter2",
		"status", 200,
	})
	if kv[1] != "[REDACTED]" || kv[3] != "[REDACTED]" {
		t.Fatalf("credentials not redacted: %v", kv)
	}
	if kv[5] != 200 {
		t.Fatalf("ordinary value mangled: %v", kv[5])
	}
}

func TestSanitizeHashesPatientIDs(t *testing.T) {
	log := redactingLogger(t)
	kv := log.sanitizeKVs([]interface{}{"patient_id", "1234567890"})
	hashed, ok := kv[1].(string)
	if !ok || !strings.HasPrefix(hashed, "hash:") {
		t.Fatalf("patient id not hashed: %v", kv[1])
	}
	if strings.Contains(hashed, "1234567890") {
		t.Fatal("raw patient id leaked")
	}

	// Same input, same hash, so lines stay correlatable.
	again := log.sanitizeKVs([]interface{}{"patient_id", "1234567890"})
	if again[1] != hashed {
		t.Fatalf("hash not stable: %v vs %v", again[1], hashed)
	}
}

func TestSanitizeSaltChangesHash(t *testing.T) {
	plain := redactingLogger(t)
	salted, err := NewWithOptions("production", Options{Redact: true, HashSalt: "pepper"})
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	a := plain.sanitizeKVs([]interface{}{"patient_id", "1234567890"})[1]
	b := salted.sanitizeKVs([]interface{}{"patient_id", "1234567890"})[1]
	if a == b {
		t.Fatalf("salt must shift the hash, both are %v", a)
	}
}

func TestSanitizeRespectsRedactOff(t *testing.T) {
	log, err := NewWithOptions("production", Options{Redact: false})
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	kv := log.sanitizeKVs([]interface{}{"token", "mapi_visible", "patient_id", "1234567890"})
	if kv[1] != "mapi_visible" || kv[3] != "1234567890" {
		t.Fatalf("redaction off must pass values through: %v", kv)
	}
}

func TestSanitizeOddLengthKVs(t *testing.T) {
	log := redactingLogger(t)
	kv := log.sanitizeKVs([]interface{}{"token", "mapi_x", "dangling"})
	if len(kv) != 3 {
		t.Fatalf("length: want=3 got=%d", len(kv))
	}
	if kv[2] != "dangling" {
		t.Fatalf("dangling element dropped: %v", kv)
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production", ""} {
		log, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		if log.SugaredLogger == nil {
			t.Fatalf("New(%q): nil sugared logger", mode)
		}
	}
}
