package prayer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Format modes for one-line status output.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

// FormatData is what custom templates are executed against.
type FormatData struct {
	Key       string // "asr"
	Name      string // "Ashar"
	ShortName string // "A"
	Time      string // "15:08" or "3:08 PM"
	Remaining string // "2j 15m"
	Hours     int
	Minutes   int
}

// GoTimeLayout maps a "12h"/"24h" preference onto a time layout.
func GoTimeLayout(pref string) string {
	if pref == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// FormatOutput renders p according to mode. A mode containing "{{" is
// executed as a text/template over FormatData, e.g.
// "{{.Name}} {{.Remaining}}" -> "Ashar 2j 15m". Unknown modes fall back to
// name-and-time.
func FormatOutput(p Prayer, now time.Time, mode string, layout string) string {
	d := TimeRemaining(p, now)
	remaining := FormatRemaining(d)
	timeStr := p.Time.Format(layout)
	short := ShortNames[p.Key]

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Key:       p.Key,
			Name:      p.Name,
			ShortName: short,
			Time:      timeStr,
			Remaining: remaining,
			Hours:     int(d.Hours()),
			Minutes:   int(d.Minutes()) % 60,
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return remaining
	case FormatNextPrayerTime:
		return timeStr
	case FormatNameAndRemaining:
		return p.Name + " " + remaining
	case FormatShortNameAndTime:
		return short + " " + timeStr
	case FormatShortNameAndRemain:
		return short + " " + remaining
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", p.Name, timeStr, remaining)
	default:
		return p.Name + " " + timeStr
	}
}

// ExecTemplate runs a user template over data, returning a "template-err:"
// string instead of failing so status bars always get a line.
func ExecTemplate(tmpl string, data any) string {
	return formatCustom(tmpl, data)
}

func formatCustom(tmpl string, data any) string {
	t, err := template.New("custom").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}
	return buf.String()
}
