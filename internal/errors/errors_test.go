package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/Koenneker/uvl-lsp/internal/fileid"
)

func TestParseError(t *testing.T) {
	underlying := errors.New("syntax error")
	fid := fileid.New("file:///a.uvl")
	err := NewParseError(fid, "/path/to/file.uvl", 10, 5, "identifier", underlying)

	if err.Kind != KindParse {
		t.Errorf("expected Kind to be KindParse, got %v", err.Kind)
	}
	if err.FileID != fid {
		t.Errorf("expected FileID to be %v, got %v", fid, err.FileID)
	}
	if err.Line != 10 || err.Column != 5 {
		t.Errorf("expected Line/Column to be 10:5, got %d:%d", err.Line, err.Column)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("expected error to unwrap to underlying error")
	}
	expected := `parse error at /path/to/file.uvl:11:6 (near "identifier"): syntax error`
	if err.Error() != expected {
		t.Errorf("expected message %q, got %q", expected, err.Error())
	}
}

func TestResolutionError(t *testing.T) {
	underlying := errors.New("no such symbol")
	fid := fileid.New("file:///a.uvl")

	withSuggestion := NewResolutionError(fid, "a.b.c", "a.b.d", underlying)
	if withSuggestion.Kind != KindResolution {
		t.Errorf("expected Kind to be KindResolution, got %v", withSuggestion.Kind)
	}
	expected := `could not resolve "a.b.c" (did you mean "a.b.d"?): no such symbol`
	if withSuggestion.Error() != expected {
		t.Errorf("expected message %q, got %q", expected, withSuggestion.Error())
	}
	if !errors.Is(withSuggestion, underlying) {
		t.Errorf("expected error to unwrap to underlying error")
	}

	noSuggestion := NewResolutionError(fid, "a.b.c", "", underlying)
	expected = `could not resolve "a.b.c": no such symbol`
	if noSuggestion.Error() != expected {
		t.Errorf("expected message %q, got %q", expected, noSuggestion.Error())
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("invalid value")
	err := NewConfigError("field_name", "invalid_value", underlying)

	if err.Field != "field_name" {
		t.Errorf("expected Field to be 'field_name', got %s", err.Field)
	}
	if err.Value != "invalid_value" {
		t.Errorf("expected Value to be 'invalid_value', got %s", err.Value)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("expected error to unwrap to underlying error")
	}
	expected := `config error for field field_name (value invalid_value): invalid value`
	if err.Error() != expected {
		t.Errorf("expected message %q, got %q", expected, err.Error())
	}
}

func TestFileError(t *testing.T) {
	underlying := errors.New("permission denied")
	err := NewFileError("read", "/path/to/file", underlying)

	if err.Kind != KindFile {
		t.Errorf("expected Kind to be KindFile, got %v", err.Kind)
	}
	if err.Path != "/path/to/file" {
		t.Errorf("expected Path to be '/path/to/file', got %s", err.Path)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("expected error to unwrap to underlying error")
	}
	expected := "file read failed for /path/to/file: permission denied"
	if err.Error() != expected {
		t.Errorf("expected message %q, got %q", expected, err.Error())
	}
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")
	err3 := errors.New("error 3")

	multiErr := NewMultiError([]error{err1, err2, err3})
	if len(multiErr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d", len(multiErr.Errors))
	}
	if multiErr.Error() != "3 errors: [error 1 error 2 error 3]" {
		t.Errorf("unexpected message %q", multiErr.Error())
	}

	singleErr := NewMultiError([]error{err1})
	if singleErr.Error() != "error 1" {
		t.Errorf("expected 'error 1', got %q", singleErr.Error())
	}

	emptyErr := NewMultiError(nil)
	if emptyErr.Error() != "no errors" {
		t.Errorf("expected 'no errors', got %q", emptyErr.Error())
	}

	nilFiltered := NewMultiError([]error{err1, nil, err2, nil})
	if len(nilFiltered.Errors) != 2 {
		t.Errorf("expected 2 errors after filtering nil, got %d", len(nilFiltered.Errors))
	}

	unwrapped := multiErr.Unwrap()
	if len(unwrapped) != 3 {
		t.Errorf("expected 3 unwrapped errors, got %d", len(unwrapped))
	}
}

func TestTimestamp(t *testing.T) {
	err := NewFileError("stat", "/tmp/x", errors.New("boom"))
	if err.Timestamp.IsZero() {
		t.Errorf("expected non-zero timestamp")
	}
	now := time.Now()
	if err.Timestamp.After(now) || now.Sub(err.Timestamp) > time.Second {
		t.Errorf("timestamp seems incorrect: %v", err.Timestamp)
	}
}
