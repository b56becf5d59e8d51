package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInit_AddsServiceField(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	log := Init(Options{Level: "debug", Output: &buf, Service: "kyc-service"})
	log.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "kyc-service" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
	if entry["message"] != "hello" {
		t.Fatalf("unexpected message: %v", entry["message"])
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	_ = Get()
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	if lvl := parseLevel("bogus"); lvl.String() != "info" {
		t.Fatalf("expected info, got %s", lvl)
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"12345678901": "*******8901",
		"1234":        "****",
		"":            "",
	}
	for in, want := range tests {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
