package diag

// Severity is the level of a diagnostic. The order matters: anything at or
// above SevWarning is user visible, Ignored is dropped by consumers.
type Severity uint8

const (
	SevIgnored Severity = iota
	SevNote
	SevRemark
	SevWarning
	SevError
	SevFatal
)

func (s Severity) String() string {
	switch s {
	case SevIgnored:
		return "IGNORED"
	case SevNote:
		return "NOTE"
	case SevRemark:
		return "REMARK"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevFatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

// Label is the lowercase spelling used in text output.
func (s Severity) Label() string {
	switch s {
	case SevFatal:
		return "fatal error"
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	case SevRemark:
		return "remark"
	case SevNote:
		return "note"
	}
	return "ignored"
}
