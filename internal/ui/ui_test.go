package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestReport(t *testing.T) {
	out := NewReport("Needle test").
		Add("Result", "PASS").
		Addf("Total chunks", "%d", 11).
		String()

	for _, want := range []string{"Needle test", "Result", "PASS", "Total chunks", "11"} {
		if !strings.Contains(out, want) {
			t.Errorf("Report output missing %q:\n%s", want, out)
		}
	}
}

func TestChunkTruncates(t *testing.T) {
	out := Chunk("  abcdefghij  ", 4)
	if !strings.Contains(out, "abcd…") {
		t.Errorf("Expected truncated chunk, got %q", out)
	}
	if strings.Contains(out, "efg") {
		t.Errorf("Expected text after the limit to be cut, got %q", out)
	}

	out = Chunk("short", 0)
	if !strings.Contains(out, "short") {
		t.Errorf("Expected full chunk, got %q", out)
	}
}

func TestPrinter(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.Infof("found %d files", 2)
	p.Warnf("slow")
	p.Errorf("bad %s", "thing")
	p.Debugf("hidden")

	expected := "found 2 files\nWarning: slow\nError: bad thing\n"
	if buf.String() != expected {
		t.Errorf("Printer output = %q, expected %q", buf.String(), expected)
	}

	buf.Reset()
	NewPrinter(&buf, true).Debugf("shown %d", 1)
	if buf.String() != "[DEBUG] shown 1\n" {
		t.Errorf("Debug output = %q", buf.String())
	}
}

func TestSpinDisabledRunsDirectly(t *testing.T) {
	got, err := Spin(false, "working", func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Errorf("Spin() = %d, %v, expected 42, nil", got, err)
	}

	boom := errors.New("boom")
	_, err = Spin(false, "working", func() (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Errorf("Expected error to pass through, got %v", err)
	}
}

func TestInteractive(t *testing.T) {
	if Interactive(&bytes.Buffer{}) {
		t.Error("A buffer is never interactive")
	}
}
