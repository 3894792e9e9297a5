package rtf

import "errors"

// Fatal sentinels. A nil return from Scan means the document completed
// clean; dispatcher verdicts propagate as-is.
var (
	// ErrTempDir reports that the per-scan temporary directory could not
	// be created. Fatal before parsing starts.
	ErrTempDir = errors.New("rtf: cannot create temporary directory")

	// ErrWrite reports a failed or short write of decoded object bytes.
	ErrWrite = errors.New("rtf: write temporary file")

	// ErrUnlink reports that an extracted temp file could not be removed
	// after a clean downstream scan. Never masks a non-clean verdict.
	ErrUnlink = errors.New("rtf: remove temporary file")
)

// Recoverable anomalies, routed through the recovery strategy. Under the
// default lenient strategy they are logged and parsing continues.
var (
	errControlWordTooLong = errors.New("rtf: control word exceeds maximum length")
	errParamOverflow      = errors.New("rtf: control word parameter overflows int64")
	errUnbalancedGroup    = errors.New("rtf: closing brace without matching group")
	errObjectMagic        = errors.New("rtf: embedded object magic mismatch")
	errObjectTooLarge     = errors.New("rtf: embedded object exceeds size limit")
	errTooManyObjects     = errors.New("rtf: embedded object count exceeds limit")
)
