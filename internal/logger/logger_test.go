package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		level   string
		debug   bool
		warning bool
	}{
		{level: "debug", debug: true, warning: true},
		{level: "info", debug: false, warning: true},
		{level: "error", debug: false, warning: false},
		{level: "unknown", debug: false, warning: true},
	}
	for _, test := range tests {
		t.Run(test.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: test.level, Out: &buf})

			l.Debug().Msg("d")
			if got := buf.Len() > 0; got != test.debug {
				t.Fatalf("%t, expected %t", got, test.debug)
			}
			buf.Reset()

			l.Warn().Int("n", 3).Msg("w")
			if got := buf.Len() > 0; got != test.warning {
				t.Fatalf("%t, expected %t", got, test.warning)
			}
			if !test.warning {
				return
			}
			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("%+v %s", err, buf.String())
			}
			if entry["message"] != "w" || entry["n"] != float64(3) || entry["level"] != "warn" {
				t.Fatalf("%#v", entry)
			}
			if _, ok := entry["caller"]; !ok {
				t.Fatalf("no caller %#v", entry)
			}
		})
	}
}
