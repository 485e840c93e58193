package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("Preamble")
	tm.End(a, "reused")
	stop := tm.Track("Execute")
	stop()
	stop() // повторный End ничего не меняет

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Note != "reused" || r.Phases[1].Name != "Execute" {
		t.Fatalf("report = %+v", r)
	}
	if !strings.Contains(tm.Summary(), "total") {
		t.Fatalf("summary lacks total:\n%s", tm.Summary())
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Phases) != 0 {
		t.Fatalf("nil timer recorded phases")
	}
}
