// Package validator runs cross-entity consistency checks over loaded
// networks. Findings accumulate so one run reports every violation.
package validator

import (
	"fmt"
	"sync"

	"github.com/autosar-community/ecucgen/internal/model"
)

type DiagnosticLevel int

const (
	LevelError DiagnosticLevel = iota
	LevelWarning
)

func (l DiagnosticLevel) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	}
	return "unknown"
}

type Diagnostic struct {
	Level   DiagnosticLevel
	Network string
	Message string
}

type Validator struct {
	Diagnostics []Diagnostic
	mu          sync.Mutex
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) report(level DiagnosticLevel, network, format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Diagnostics = append(v.Diagnostics, Diagnostic{
		Level:   level,
		Network: network,
		Message: fmt.Sprintf(format, args...),
	})
}

// CheckCANDatabase reports duplicate message IDs and signals that do not
// fit their message payload. Sibling signals may overlap; only the
// message boundary is checked.
func (v *Validator) CheckCANDatabase(db *model.CANDatabase) {
	seen := make(map[uint32]string)
	for _, msg := range db.Messages {
		if first, ok := seen[msg.ID]; ok {
			v.report(LevelError, db.Name,
				"Duplicate CAN message ID %#x in network '%s': '%s' conflicts with '%s'",
				msg.ID, db.Name, msg.Name, first)
		} else {
			seen[msg.ID] = msg.Name
		}
		for _, sig := range msg.Signals {
			if sig.StartBit+sig.Length > msg.DLC*8 {
				v.report(LevelError, db.Name,
					"Signal '%s' exceeds message '%s' size in network '%s'",
					sig.Name, msg.Name, db.Name)
			}
		}
	}
}

// CheckLINNetwork reports a missing master node, duplicate frame IDs and
// signals that do not fit their frame. A schedule entry naming an
// unknown frame is only a warning.
func (v *Validator) CheckLINNetwork(network *model.LINNetwork) {
	if _, ok := network.Master(); !ok {
		v.report(LevelError, network.Name,
			"LIN network '%s' must have at least one master node", network.Name)
	}
	seen := make(map[uint32]string)
	for _, frame := range network.Frames {
		if first, ok := seen[frame.ID]; ok {
			v.report(LevelError, network.Name,
				"Duplicate LIN frame ID %#x in network '%s': '%s' conflicts with '%s'",
				frame.ID, network.Name, frame.Name, first)
		} else {
			seen[frame.ID] = frame.Name
		}
		for _, sig := range frame.Signals {
			if sig.StartBit+sig.Length > frame.Length*8 {
				v.report(LevelError, network.Name,
					"Signal '%s' exceeds frame '%s' size in network '%s'",
					sig.Name, frame.Name, network.Name)
			}
		}
	}
	for _, table := range network.ScheduleTables {
		for _, entry := range table.Entries {
			if _, ok := network.FrameByName(entry.FrameName); !ok {
				v.report(LevelWarning, network.Name,
					"Schedule table '%s' in network '%s' references unknown frame '%s'",
					table.Name, network.Name, entry.FrameName)
			}
		}
	}
}

// Err folds the error-level findings into one ValidationError; warnings
// alone leave it nil.
func (v *Validator) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	var violations []string
	for _, d := range v.Diagnostics {
		if d.Level == LevelError {
			violations = append(violations, d.Message)
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &model.ValidationError{Violations: violations}
}
