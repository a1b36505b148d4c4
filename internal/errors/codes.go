// Package errors provides structured error handling for equiprank.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration and provider-construction errors
//   - 2XX: Corpus and artifact IO errors
//   - 3XX: Provider call (network) errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration or provider-construction errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates corpus, artifact, and snapshot I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates remote provider call errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config / provider construction (100-199)
	ErrCodeConfigInvalid      = "ERR_101_CONFIG_INVALID"
	ErrCodeProviderMisconfig  = "ERR_102_PROVIDER_MISCONFIG"
	ErrCodeProviderUnknown    = "ERR_103_PROVIDER_UNKNOWN"

	// Corpus / artifact IO (200-299)
	ErrCodeCorpusNotFound   = "ERR_201_CORPUS_NOT_FOUND"
	ErrCodeCorpusInvalid    = "ERR_202_CORPUS_INVALID"
	ErrCodeSnapshotCorrupt  = "ERR_203_SNAPSHOT_CORRUPT"
	ErrCodeSnapshotVersion  = "ERR_204_SNAPSHOT_VERSION"
	ErrCodeArtifactMissing  = "ERR_205_ARTIFACT_MISSING"

	// Provider calls (300-399)
	ErrCodeProviderTimeout     = "ERR_301_PROVIDER_TIMEOUT"
	ErrCodeProviderUnavailable = "ERR_302_PROVIDER_UNAVAILABLE"
	ErrCodeProviderBadResponse = "ERR_303_PROVIDER_BAD_RESPONSE"

	// Validation (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty   = "ERR_402_QUERY_EMPTY"
	ErrCodeBatchTooBig  = "ERR_403_BATCH_TOO_BIG"

	// Internal (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeIndexMisuse     = "ERR_503_INDEX_MISUSE"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from the code's category.
// Provider misconfiguration and corpus failures are fatal per the
// degradation policy; network failures are errors the pipeline absorbs.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeProviderMisconfig, ErrCodeProviderUnknown,
		ErrCodeCorpusNotFound, ErrCodeCorpusInvalid, ErrCodeConfigInvalid:
		return SeverityFatal
	case ErrCodeArtifactMissing, ErrCodeSnapshotVersion:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether the operation behind the code may be
// retried. A malformed provider response is deterministic and excluded.
func isRetryableCode(code string) bool {
	if code == ErrCodeProviderBadResponse {
		return false
	}
	return categoryFromCode(code) == CategoryNetwork
}
