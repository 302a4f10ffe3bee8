// Package diagnostics carries structured problem reports from the engine to
// connected clients.
package diagnostics

import (
	"fmt"
	"sync"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

const (
	CodeSlideInvalid = "SLIDE.INVALID"
	CodeAssetFailed  = "ASSET.FAILED"
	CodeSlideSettled = "SLIDE.SETTLED"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Reporter receives diagnostics. Implementations must not block.
type Reporter interface {
	Report(d Diagnostic)
}

type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Nop drops everything.
var Nop Reporter = ReporterFunc(func(Diagnostic) {})

func SlideInvalid(index, count int) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     CodeSlideInvalid,
		Summary:  "Slide index out of range",
		Detail:   fmt.Sprintf("slide %d requested, tables have %d keyframes", index, count),
		LikelyCauses: []string{
			"carousel has more slides than keyframes",
			"stale client after a keyframe file change",
		},
		SuggestedFixes: []string{"keep the slide count equal to the keyframe table length"},
		Evidence:       map[string]any{"slide": index, "count": count},
	}
}

func AssetFailed(path string, err error) Diagnostic {
	return Diagnostic{
		Severity:       Warn,
		Code:           CodeAssetFailed,
		Summary:        "Asset failed to load",
		Detail:         err.Error(),
		LikelyCauses:   []string{"missing file under the assets directory", "unsupported or corrupt file"},
		SuggestedFixes: []string{"check assets_dir and the model/texture paths"},
		Evidence:       map[string]any{"path": path},
	}
}

func SlideSettled(index int, seconds float64) Diagnostic {
	return Diagnostic{
		Severity: Info,
		Code:     CodeSlideSettled,
		Summary:  "Slide transition finished",
		Evidence: map[string]any{"slide": index, "seconds": seconds},
	}
}

// Recorder keeps every diagnostic it is given.
type Recorder struct {
	mu  sync.Mutex
	all []Diagnostic
}

func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	r.all = append(r.all, d)
	r.mu.Unlock()
}

func (r *Recorder) All() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.all...)
}

// Codes lists recorded codes in order.
func (r *Recorder) Codes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.all))
	for i, d := range r.all {
		out[i] = d.Code
	}
	return out
}
