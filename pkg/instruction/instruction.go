// Package instruction classifies validation-test instruction lines and
// selects the run mode for an instruction list.
package instruction

import (
	"fmt"
	"strings"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// Kind is the classification of a single instruction line.
type Kind int

const (
	KindComment Kind = iota
	KindDirective
	KindCcc
	KindTimedEvent
	KindFactoryInit
	KindPanorama
	KindDhcpControl
	KindWait
	KindKeypress
	KindUnknown
)

var kindNames = map[Kind]string{
	KindComment:     "comment",
	KindDirective:   "directive",
	KindCcc:         "ccc",
	KindTimedEvent:  "event_timed",
	KindFactoryInit: "factory_init",
	KindPanorama:    "panorama",
	KindDhcpControl: "dhcp_server",
	KindWait:        "wait_s",
	KindKeypress:    "wait_e",
	KindUnknown:     "unknown",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// StateChanging reports whether lines of this kind act on the device or the
// host and therefore need operator confirmation outside FullAuto.
func (k Kind) StateChanging() bool {
	switch k {
	case KindCcc, KindTimedEvent, KindFactoryInit, KindPanorama, KindDhcpControl:
		return true
	}
	return false
}

// RunMode governs whether the dispatcher pauses for confirmation.
type RunMode int

const (
	Interactive RunMode = iota
	SemiAuto
	FullAuto
)

func (m RunMode) String() string {
	switch m {
	case SemiAuto:
		return "SEMI_AUTO"
	case FullAuto:
		return "FULL_AUTO"
	default:
		return "INTERACTIVE"
	}
}

// Leading tokens recognised by the classifier.
const (
	TokenCcc               = "ccc"
	TokenPanorama          = "panorama"
	TokenEventTimed        = "event_timed"
	TokenFactoryInit       = "factory_init"
	TokenDhcpServer        = "dhcp_server"
	TokenMinimalDhcpServer = "minimal_dhcp_server"
	TokenWaitSeconds       = "wait_s"
	TokenWaitEnter         = "wait_e"
)

var directives = map[string]RunMode{
	"SEMI_AUTO": SemiAuto,
	"FULL_AUTO": FullAuto,
}

var leadingTokens = map[string]Kind{
	TokenCcc:               KindCcc,
	TokenPanorama:          KindPanorama,
	TokenEventTimed:        KindTimedEvent,
	TokenFactoryInit:       KindFactoryInit,
	TokenDhcpServer:        KindDhcpControl,
	TokenMinimalDhcpServer: KindDhcpControl,
	TokenWaitSeconds:       KindWait,
	TokenWaitEnter:         KindKeypress,
}

// Line is one immutable, classified instruction.
type Line struct {
	Text string
	Kind Kind
	// Mode is only meaningful for KindDirective.
	Mode RunMode
}

// Trimmed returns the instruction text without surrounding whitespace.
func (l Line) Trimmed() string {
	return strings.TrimSpace(l.Text)
}

// Fields splits the instruction on whitespace.
func (l Line) Fields() []string {
	return strings.Fields(l.Text)
}

// HasToken reports whether tok appears as a whole whitespace-separated field.
func (l Line) HasToken(tok string) bool {
	for _, f := range l.Fields() {
		if f == tok {
			return true
		}
	}
	return false
}

// Classify determines the kind of a single instruction line.
//
// A directive is a line whose only content, once '#' decoration and
// whitespace are stripped, is a reserved mode keyword. A keyword embedded in
// other text is not a directive.
func Classify(text string) Line {
	line := Line{Text: text}
	trimmed := strings.TrimSpace(text)

	if mode, ok := directives[strings.Trim(trimmed, "# \t")]; ok {
		line.Kind = KindDirective
		line.Mode = mode
		return line
	}
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		line.Kind = KindComment
		return line
	}

	first := strings.Fields(trimmed)[0]
	if kind, ok := leadingTokens[first]; ok {
		line.Kind = kind
	} else {
		line.Kind = KindUnknown
	}
	return line
}

// Parse classifies every line of an instruction list, preserving order.
func Parse(texts []string) []Line {
	lines := make([]Line, len(texts))
	for i, t := range texts {
		lines[i] = Classify(t)
	}
	return lines
}

// SelectMode picks the run mode for an instruction list. No directive means
// Interactive. More than one directive, or a directive after the first
// action line, is rejected rather than resolved silently.
func SelectMode(lines []Line) (RunMode, error) {
	mode := Interactive
	found := -1
	firstAction := -1

	for i, l := range lines {
		switch l.Kind {
		case KindComment:
			continue
		case KindDirective:
			if found >= 0 {
				return Interactive, fmt.Errorf("instruction: %w: directive %q on line %d after %q on line %d",
					util.ErrAmbiguousMode, l.Trimmed(), i+1, lines[found].Trimmed(), found+1)
			}
			if firstAction >= 0 {
				return Interactive, fmt.Errorf("instruction: %w: directive %q on line %d follows action %q on line %d",
					util.ErrAmbiguousMode, l.Trimmed(), i+1, lines[firstAction].Trimmed(), firstAction+1)
			}
			found = i
			mode = l.Mode
		default:
			if firstAction < 0 {
				firstAction = i
			}
		}
	}
	return mode, nil
}
