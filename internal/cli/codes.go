package cli

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeConfig       = "E002" // Invalid configuration or flags
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeReadFailed   = "E006" // File read error
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeParseFailed  = "E008" // Manifest does not parse
	ErrCodeStructural   = "E010" // Removal would corrupt the manifest
	ErrCodeVerification = "E011" // Residual target references
	ErrCodeJournal      = "E012" // Journal open/read/write error
	ErrCodeRunNotFound  = "E013" // No such run in the journal
	ErrCodeDigest       = "E014" // Journaled content failed its digest check
)
