package ridat

import (
	"errors"
	"fmt"
)

// Kind identifies why a decode failed.
type Kind int

const (
	// KindNone is reported for nil errors and errors not produced by a decode.
	KindNone Kind = iota
	KindStreamUnavailable
	KindBadMagic
	KindUnsupportedVariant
	KindUnknownVersion
	KindTruncatedSection
)

// String returns the outcome name used by the CLI and the catalog.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindStreamUnavailable:
		return "stream-unavailable"
	case KindBadMagic:
		return "bad-magic"
	case KindUnsupportedVariant:
		return "unsupported-variant"
	case KindUnknownVersion:
		return "unknown-version"
	case KindTruncatedSection:
		return "truncated-section"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinel errors, one per Kind. A *DecodeError matches its sentinel with errors.Is.
var (
	ErrStreamUnavailable  = errors.New("ridat: input stream unavailable")
	ErrBadMagic           = errors.New("ridat: bad magic number, not a RiDat file")
	ErrUnsupportedVariant = errors.New("ridat: file is RiImage, which is not supported")
	ErrUnknownVersion     = errors.New("ridat: unknown file version")
	ErrTruncatedSection   = errors.New("ridat: truncated section")

	errDecode = errors.New("ridat: decode failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindStreamUnavailable:
		return ErrStreamUnavailable
	case KindBadMagic:
		return ErrBadMagic
	case KindUnsupportedVariant:
		return ErrUnsupportedVariant
	case KindUnknownVersion:
		return ErrUnknownVersion
	case KindTruncatedSection:
		return ErrTruncatedSection
	default:
		return errDecode
	}
}

// DecodeError describes a failed decode. Section and Field are set for
// failures inside a section; Value holds the magic or version read from the
// header for the corresponding kinds.
type DecodeError struct {
	Kind    Kind
	Section string
	Field   string
	Offset  int64
	Value   int32
	Err     error
}

func (e *DecodeError) Error() string {
	msg := e.Kind.sentinel().Error()
	switch e.Kind {
	case KindBadMagic:
		// Value is only meaningful when the magic word was read in full.
		if e.Err == nil {
			msg = fmt.Sprintf("%s (got %d, want %d)", msg, e.Value, Magic)
		}
	case KindUnknownVersion:
		msg = fmt.Sprintf("%s %d", msg, e.Value)
	case KindTruncatedSection:
		msg = fmt.Sprintf("%s %q at field %q, offset %d", msg, e.Section, e.Field, e.Offset)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel for the kind and the underlying cause.
func (e *DecodeError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf reports the Kind carried by err, or KindNone.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindNone
}

func unavailable(err error) *DecodeError {
	return &DecodeError{Kind: KindStreamUnavailable, Err: err}
}

func truncated(section, field string, offset int64, err error) *DecodeError {
	return &DecodeError{
		Kind:    KindTruncatedSection,
		Section: section,
		Field:   field,
		Offset:  offset,
		Err:     err,
	}
}
