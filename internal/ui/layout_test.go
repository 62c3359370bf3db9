package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestContentHeight(t *testing.T) {
	l := NewLayout(80, 24)
	if got := l.ContentHeight(); got != 22 {
		t.Errorf("ContentHeight() = %d, want 22", got)
	}
	if got := l.WithTimer(true).ContentHeight(); got != 21 {
		t.Errorf("ContentHeight() with timer = %d, want 21", got)
	}
	if got := l.WithTimer(true).WithTimer(false).ContentHeight(); got != 22 {
		t.Errorf("ContentHeight() after hiding timer = %d, want 22", got)
	}
	if got := NewLayout(80, 1).ContentHeight(); got != 0 {
		t.Errorf("ContentHeight() on a tiny terminal = %d, want 0", got)
	}
}

func TestBarsSpanWidth(t *testing.T) {
	l := NewLayout(60, 10)

	for name, bar := range map[string]string{
		"header": l.RenderHeader("taskman", "3 tasks"),
		"status": l.RenderStatusBar("q quit"),
		"error":  l.RenderErrorBar("Error: boom"),
	} {
		if w := lipgloss.Width(bar); w != 60 {
			t.Errorf("%s width = %d, want 60", name, w)
		}
	}
}

func TestRenderWithFrameTimerRow(t *testing.T) {
	l := NewLayout(40, 10)

	without := l.RenderWithFrame("H", "body", "TIMER", "S")
	if strings.Contains(without, "TIMER") {
		t.Error("timer rendered while hidden")
	}
	if h := lipgloss.Height(without); h != 10 {
		t.Errorf("frame height = %d, want 10", h)
	}

	with := l.WithTimer(true).RenderWithFrame("H", "body", "TIMER", "S")
	if !strings.Contains(with, "TIMER") {
		t.Error("timer missing while shown")
	}
	if h := lipgloss.Height(with); h != 10 {
		t.Errorf("frame height with timer = %d, want 10", h)
	}
}
