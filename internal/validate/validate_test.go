// SPDX-License-Identifier: MIT
package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		allowedSchemes []string
		wantErr        bool
	}{
		{"valid http", "http://example.com", []string{"http", "https"}, false},
		{"valid https", "https://example.com", []string{"http", "https"}, false},
		{"empty url", "", []string{"http"}, true},
		{"no host", "http://", []string{"http"}, true},
		{"invalid scheme", "ftp://example.com", []string{"http", "https"}, true},
		{"no scheme", "example.com", []string{"http"}, true},
		{"with port", "http://example.com:8080", []string{"http"}, false},
		{"any scheme", "rtsp://example.com/live", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("testURL", tt.value, tt.allowedSchemes)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_HostPort(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"host and port", "localhost:6379", false},
		{"ipv6", "[::1]:4317", false},
		{"empty host", ":6379", false},
		{"no port", "localhost", true},
		{"empty port", "localhost:", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.HostPort("addr", tt.value)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_Range(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		min     int
		max     int
		wantErr bool
	}{
		{"in range", 5, 1, 10, false},
		{"at min", 1, 1, 10, false},
		{"at max", 10, 1, 10, false},
		{"below min", 0, 1, 10, true},
		{"above max", 11, 1, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Range("testField", tt.value, tt.min, tt.max)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_FloatRange(t *testing.T) {
	v := New()
	v.FloatRange("rate", 0.5, 0, 1)
	v.FloatRange("rate", 1, 0, 1)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v.FloatRange("rate", 1.01, 0, 1)
	if v.IsValid() {
		t.Fatal("expected error for value above max")
	}
	if !strings.Contains(v.Err().Error(), "1.01") {
		t.Errorf("error should quote the value: %v", v.Err())
	}
}

func TestValidator_MinDuration(t *testing.T) {
	v := New()
	v.MinDuration("interval", time.Second, 250*time.Millisecond)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v.MinDuration("interval", 100*time.Millisecond, 250*time.Millisecond)
	if v.IsValid() {
		t.Fatal("expected error for short duration")
	}
	if !strings.Contains(v.Err().Error(), "250ms") {
		t.Errorf("error should name the minimum: %v", v.Err())
	}
}

func TestValidator_Directory(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "file")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		path      string
		mustExist bool
		wantErr   bool
	}{
		{"existing dir", tmp, true, false},
		{"missing must exist", filepath.Join(tmp, "missing"), true, true},
		{"missing is created", filepath.Join(tmp, "created"), false, false},
		{"file", file, false, true},
		{"empty", "", false, true},
		{"traversal", "../etc", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Directory("dir", tt.path, tt.mustExist)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}

	if info, err := os.Stat(filepath.Join(tmp, "created")); err != nil || !info.IsDir() {
		t.Errorf("directory was not created: %v", err)
	}
}

func TestValidator_NotEmpty(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"non-empty", "hello", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"tab only", "\t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.NotEmpty("testField", tt.value)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_OneOf(t *testing.T) {
	allowed := []string{"memory", "sqlite", "redis"}

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid memory", "memory", false},
		{"valid redis", "redis", false},
		{"invalid", "badger", true},
		{"invalid empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.OneOf("testField", tt.value, allowed)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_PositiveAndNonNegative(t *testing.T) {
	v := New()
	v.Positive("a", 1)
	v.NonNegative("b", 0)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v.Positive("c", 0)
	v.NonNegative("d", -1)
	if got := len(v.Errors()); got != 2 {
		t.Errorf("expected 2 errors, got %d", got)
	}
}

func TestValidator_Wrap(t *testing.T) {
	v := New()
	v.Wrap("buffer", nil)
	if !v.IsValid() {
		t.Fatal("nil error must not be recorded")
	}

	v.Wrap("buffer", errors.New("maxBuffer must be >= minBuffer"))
	err := v.Err()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "buffer") || !strings.Contains(err.Error(), "maxBuffer") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidator_MultipleErrors(t *testing.T) {
	v := New()

	v.HostPort("addr", "nope")
	v.URL("url", "", []string{"http"})
	v.NotEmpty("name", "")

	if v.IsValid() {
		t.Fatal("expected errors, got none")
	}

	if got := len(v.Errors()); got != 3 {
		t.Errorf("expected 3 errors, got %d", got)
	}

	err := v.Err()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	for _, field := range []string{"addr", "url", "name"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error message should mention %q", field)
		}
	}
}

func TestValidator_ErrIsSnapshot(t *testing.T) {
	v := New()
	v.Positive("a", 0)
	err := v.Err()
	v.Positive("b", 0)

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if got := len(verr.Errors()); got != 1 {
		t.Errorf("earlier error changed after more validation: %d errors", got)
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  bool
	}{
		{LogLevelTrace, true},
		{LogLevelDebug, true},
		{LogLevelInfo, true},
		{LogLevelWarn, true},
		{LogLevelError, true},
		{LogLevel("invalid"), false},
		{LogLevel(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := tt.level.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{" warn ", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"invalid", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}
