package diagfmt

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"lantern/internal/diag"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, PathMode: PathModeBasename}
	if err := JSON(&buf, []diag.Diagnostic{reservedDiag()}, nil, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("unexpected output %+v", output)
	}
	d := output.Diagnostics[0]
	if d.Severity != "warning" || d.Name != "bugprone-reserved-identifier" || d.Origin != "clang-tidy" {
		t.Errorf("unexpected header fields %+v", d)
	}
	want := LocationJSON{File: "main.c", StartByte: 22, EndByte: 25, StartLine: 2, StartCol: 6, EndLine: 2, EndCol: 9}
	if d.Location != want {
		t.Errorf("location = %+v", d.Location)
	}
	if len(d.Fixes) != 0 {
		t.Error("fixes included without IncludeFixes")
	}
}

func TestJSONWithoutPositions(t *testing.T) {
	out := BuildDiagnosticsOutput([]diag.Diagnostic{reservedDiag()}, nil, JSONOpts{PathMode: PathModeAbsolute})
	loc := out.Diagnostics[0].Location
	if loc.StartLine != 0 || loc.StartCol != 0 || loc.File != "/w/src/main.c" {
		t.Fatalf("location = %+v", loc)
	}
}

func TestJSONMaxLimit(t *testing.T) {
	diags := []diag.Diagnostic{reservedDiag(), reservedDiag(), reservedDiag()}
	out := BuildDiagnosticsOutput(diags, nil, JSONOpts{Max: 2})
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
}

func TestJSONFixPreview(t *testing.T) {
	opts := JSONOpts{IncludeFixes: true, IncludePreviews: true, PathMode: PathModeBasename}
	out := BuildDiagnosticsOutput([]diag.Diagnostic{reservedDiag()}, memSources(), opts)
	fixes := out.Diagnostics[0].Fixes
	if len(fixes) != 1 || fixes[0].Title != "remove leading underscores" || len(fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", fixes)
	}
	e := fixes[0].Edits[0]
	if e.NewText != "a" || e.Location.File != "main.c" {
		t.Errorf("edit = %+v", e)
	}
	if !reflect.DeepEqual(e.BeforeLines, []string{"\tint __a;"}) || !reflect.DeepEqual(e.AfterLines, []string{"\tint a;"}) {
		t.Errorf("preview before %q after %q", e.BeforeLines, e.AfterLines)
	}
}

func TestSarif(t *testing.T) {
	var buf bytes.Buffer
	meta := SarifRunMeta{ToolName: "lantern", ToolVersion: "0.3.0", InvocationArgs: []string{"check", "main.c"}}
	if err := Sarif(&buf, []diag.Diagnostic{reservedDiag()}, meta); err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "lantern" || len(run.Tool.Driver.Rules) != 1 || run.Tool.Driver.Rules[0].ID != "bugprone-reserved-identifier" {
		t.Errorf("driver = %+v", run.Tool.Driver)
	}
	if len(run.Results) != 1 {
		t.Fatalf("results = %+v", run.Results)
	}
	r := run.Results[0]
	if r.Level != "warning" || r.Locations[0].PhysicalLocation.ArtifactLocation.URI != "file:///w/src/main.c" {
		t.Errorf("result = %+v", r)
	}
	if got := r.Locations[0].PhysicalLocation.Region; got.StartLine != 2 || got.ByteLength != 3 {
		t.Errorf("region = %+v", got)
	}
	if len(r.Fixes) != 1 || r.Fixes[0].ArtifactChanges[0].Replacements[0].InsertedContent.Text != "a" {
		t.Errorf("fixes = %+v", r.Fixes)
	}
	if !run.Invocations[0].ExecutionSuccessful {
		t.Error("warnings only must count as success")
	}
}
