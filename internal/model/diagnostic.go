package model

import "fmt"

// ErrorKind names the error taxonomy the core reports, independent of Go's
// own error type system. Every fatal condition in the pipeline is tagged
// with one of these so the driver and CLI can map it to the right exit
// code and presentation.
type ErrorKind string

const (
	KindSchemaValidation         ErrorKind = "SchemaValidation"
	KindSemanticValidation       ErrorKind = "SemanticValidation"
	KindToolchainResolution      ErrorKind = "ToolchainResolution"
	KindArchitectureUnsupported  ErrorKind = "ArchitectureUnsupported"
	KindCompilerInvocation       ErrorKind = "CompilerInvocation"
	KindLinkerInvocation         ErrorKind = "LinkerInvocation"
	KindArchiverInvocation       ErrorKind = "ArchiverInvocation"
	KindResourceCompilerMissing  ErrorKind = "ResourceCompilerMissing"
	KindCachePersistence         ErrorKind = "CachePersistence"
	KindInterrupted              ErrorKind = "Interrupted"
)

// Severity separates fatal diagnostics from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warn"
)

// Diagnostic is a single reported problem in filename:key:reason form.
type Diagnostic struct {
	File     string    `json:"file"`
	Key      string    `json:"key"` // JSON pointer / dotted key path
	Reason   string    `json:"reason"`
	Kind     ErrorKind `json:"kind"`
	Severity Severity  `json:"severity"`
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s:%s: %s (%s)", d.File, d.Key, d.Reason, d.Kind)
}

// String renders the diagnostic the way the CLI prints it: "ERROR: ..." or
// "WARN: ...".
func (d Diagnostic) String() string {
	prefix := "WARN"
	if d.Severity == SeverityError {
		prefix = "ERROR"
	}
	return fmt.Sprintf("%s: %s", prefix, d.Error())
}

// Diagnostics is a collection of Diagnostic, with helpers for filtering by
// severity the way the driver decides whether to fail a build.
type Diagnostics []Diagnostic

func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

func (ds Diagnostics) Warnings() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}
