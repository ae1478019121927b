package prayer

import (
	"strings"
	"testing"
	"time"
)

func formatTestPrayer() (Prayer, time.Time) {
	pTime := time.Date(2026, 3, 11, 15, 8, 0, 0, time.UTC)
	now := time.Date(2026, 3, 11, 12, 53, 0, 0, time.UTC)
	return Prayer{Key: Asr, Name: Names[Asr], Time: pTime}, now
}

func TestFormatOutput_AllBuiltinModes(t *testing.T) {
	p, now := formatTestPrayer()

	tests := []struct {
		mode string
		want string
	}{
		{FormatTimeRemaining, "2j 15m"},
		{FormatNextPrayerTime, "15:08"},
		{FormatNameAndTime, "Ashar 15:08"},
		{FormatNameAndRemaining, "Ashar 2j 15m"},
		{FormatShortNameAndTime, "A 15:08"},
		{FormatShortNameAndRemain, "A 2j 15m"},
		{FormatFull, "Ashar 15:08 (2j 15m)"},
		{"nonexistent-format", "Ashar 15:08"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			if got := FormatOutput(p, now, tt.mode, "15:04"); got != tt.want {
				t.Errorf("FormatOutput(%q) = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestFormatOutput_12HourFormat(t *testing.T) {
	p, now := formatTestPrayer()

	got := FormatOutput(p, now, FormatNameAndTime, GoTimeLayout("12h"))
	if got != "Ashar 3:08 PM" {
		t.Errorf("12h format = %q, want %q", got, "Ashar 3:08 PM")
	}
}

func TestFormatOutput_CustomTemplate(t *testing.T) {
	p, now := formatTestPrayer()

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"name and remaining", "{{.Name}} dalam {{.Remaining}}", "Ashar dalam 2j 15m"},
		{"short name and time", "{{.ShortName}} @ {{.Time}}", "A @ 15:08"},
		{"hours and minutes", "{{.Hours}}:{{.Minutes}} {{.Key}}", "2:15 asr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatOutput(p, now, tt.tmpl, "15:04"); got != tt.want {
				t.Errorf("custom template %q = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestFormatOutput_TemplateErrors(t *testing.T) {
	p, now := formatTestPrayer()

	for _, tmpl := range []string{"{{.Invalid", "{{.NonExistent}}"} {
		got := FormatOutput(p, now, tmpl, "15:04")
		if !strings.HasPrefix(got, "template-err:") {
			t.Errorf("template %q should return 'template-err:...', got %q", tmpl, got)
		}
	}
}

func TestExecTemplate_MapMissingKey(t *testing.T) {
	got := ExecTemplate("{{.missing}}", map[string]string{"present": "x"})
	if !strings.HasPrefix(got, "template-err:") {
		t.Errorf("missing map key should error, got %q", got)
	}
}

func TestFormatOutput_ZeroRemaining(t *testing.T) {
	now := time.Date(2026, 3, 11, 15, 8, 0, 0, time.UTC)
	p := Prayer{Key: Asr, Name: Names[Asr], Time: now}

	if got := FormatOutput(p, now, FormatTimeRemaining, "15:04"); got != "0m" {
		t.Errorf("zero remaining = %q, want %q", got, "0m")
	}
}
