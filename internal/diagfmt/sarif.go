package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"lantern/internal/diag"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID string `json:"id"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine,omitempty"`
	StartColumn uint32 `json:"startColumn,omitempty"`
	EndLine     uint32 `json:"endLine,omitempty"`
	EndColumn   uint32 `json:"endColumn,omitempty"`
	ByteOffset  uint32 `json:"byteOffset"`
	ByteLength  uint32 `json:"byteLength"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifact      `json:"artifactLocation"`
	Replacements     []sarifReplacement `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion  `json:"deletedRegion"`
	InsertedContent sarifMessage `json:"insertedContent"`
}

func sarifLevel(s diag.Severity) string {
	switch {
	case s >= diag.SevError:
		return "error"
	case s == diag.SevWarning:
		return "warning"
	}
	return "note"
}

func sarifRegionOf(r diag.Range) sarifRegion {
	return sarifRegion{
		StartLine:   r.Start.Line,
		StartColumn: r.Start.Col,
		EndLine:     r.End.Line,
		EndColumn:   r.End.Col,
		ByteOffset:  r.StartOff,
		ByteLength:  r.EndOff - r.StartOff,
	}
}

// Sarif форматирует диагностики в SARIF (v2.1.0).
func Sarif(w io.Writer, diags []diag.Diagnostic, meta SarifRunMeta) error {
	rules := make(map[string]bool)
	results := make([]sarifResult, 0, len(diags))
	failed := false
	for i := range diags {
		d := &diags[i]
		if d.Severity == diag.SevIgnored {
			continue
		}
		failed = failed || d.Severity >= diag.SevError
		res := sarifResult{
			RuleID:  d.Name(),
			Level:   sarifLevel(d.Severity),
			Message: sarifMessage{Text: d.Message},
		}
		rules[res.RuleID] = true
		if !d.Range.IsZero() {
			res.Locations = []sarifLocation{{PhysicalLocation: sarifPhysical{
				ArtifactLocation: sarifArtifact{URI: fileURI(d.Range.Path)},
				Region:           sarifRegionOf(d.Range),
			}}}
		}
		for _, f := range d.Fixes {
			byPath := make(map[string][]sarifReplacement)
			var order []string
			for _, e := range f.Edits {
				if _, ok := byPath[e.Range.Path]; !ok {
					order = append(order, e.Range.Path)
				}
				byPath[e.Range.Path] = append(byPath[e.Range.Path], sarifReplacement{
					DeletedRegion:   sarifRegionOf(e.Range),
					InsertedContent: sarifMessage{Text: e.NewText},
				})
			}
			sf := sarifFix{Description: sarifMessage{Text: f.Title}}
			for _, p := range order {
				sf.ArtifactChanges = append(sf.ArtifactChanges, sarifArtifactChange{
					ArtifactLocation: sarifArtifact{URI: fileURI(p)},
					Replacements:     byPath[p],
				})
			}
			res.Fixes = append(res.Fixes, sf)
		}
		results = append(results, res)
	}

	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	driver := sarifDriver{Name: meta.ToolName, Version: meta.ToolVersion, InformationURI: meta.InformationURI}
	for _, id := range ids {
		driver.Rules = append(driver.Rules, sarifRule{ID: id})
	}

	run := sarifRun{Tool: sarifTool{Driver: driver}, Results: results}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: !failed}}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sarifLog{Schema: sarifSchema, Version: "2.1.0", Runs: []sarifRun{run}})
}

func fileURI(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return "file://" + path
	}
	return path
}
