package lspserver

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Koenneker/uvl-lsp/internal/errors"
)

// toDiagnostic maps one of internal/errors' typed errors to an LSP
// Diagnostic. Only ParseError carries enough position context to point
// at something in the document; everything else, ConfigError included,
// falls back to a diagnostic at 0:0 the way the teacher's own
// state.go does for an error it can't otherwise place.
func toDiagnostic(err error) protocol.Diagnostic {
	severityError := protocol.DiagnosticSeverityError
	severityWarning := protocol.DiagnosticSeverityWarning

	switch e := err.(type) {
	case *errors.ParseError:
		line := uint32(e.Line)
		col := uint32(e.Column)
		return protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + uint32(len(e.Token))},
			},
			Severity: &severityError,
			Message:  e.Error(),
		}
	case *errors.ResolutionError:
		return protocol.Diagnostic{
			Range:    zeroRange(),
			Severity: &severityWarning,
			Message:  e.Error(),
		}
	case *errors.ConfigError:
		return protocol.Diagnostic{
			Range:    zeroRange(),
			Severity: &severityError,
			Message:  e.Error(),
		}
	default:
		return protocol.Diagnostic{
			Range:    zeroRange(),
			Severity: &severityError,
			Message:  err.Error(),
		}
	}
}

func zeroRange() protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: 0, Character: 0},
	}
}
