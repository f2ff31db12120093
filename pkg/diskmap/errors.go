package diskmap

import "fmt"

// CorruptionError reports a structural inconsistency detected while
// walking the bucket table or a record chain: a rehash step whose
// bucket assignment matches neither the keep nor the move list, or a
// nextRecordPos pointing outside the allocated secondary range. Per
// SPEC_FULL.md §7 this is fatal: the engine does not attempt to repair
// or continue past it.
type CorruptionError struct {
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("diskmap: corruption detected: %s", e.Reason)
}

// ErrIteratorRemoveUnsupported is returned by Iterator.Remove, which
// SPEC_FULL.md §4.5 explicitly does not support.
var ErrIteratorRemoveUnsupported = fmt.Errorf("diskmap: iterator does not support remove")

// UsageError reports a caller error: an operation invoked in a way the
// engine refuses to perform, as opposed to an IO failure or detected
// corruption.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("diskmap: usage error: %s", e.Reason)
}
