package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrNotAuthenticated   ErrCode = "NOT_AUTHENTICATED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrCSRFFailed         ErrCode = "CSRF_FAILED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden     ErrCode = "FORBIDDEN"
	ErrNotQuizAuthor ErrCode = "NOT_QUIZ_AUTHOR"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Quiz-specific ─────────────────────────────────────────────────
	ErrQuizNotAvailable   ErrCode = "QUIZ_NOT_AVAILABLE"
	ErrQuizNotEditable    ErrCode = "QUIZ_NOT_EDITABLE"
	ErrNoSlots            ErrCode = "NO_SLOTS"
	ErrAttemptSubmitted   ErrCode = "ATTEMPT_ALREADY_SUBMITTED"
	ErrUnknownSlot        ErrCode = "UNKNOWN_SLOT"
	ErrBankProblemMissing ErrCode = "BANK_PROBLEM_MISSING"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns the human-readable detail for a given error code.
// Credential-related messages mention "credentials" so clients can tell
// them apart from resource denials.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid credentials."
	case ErrNotAuthenticated:
		return "Authentication credentials were not provided."
	case ErrTokenInvalid:
		return "Session credentials are invalid or expired."
	case ErrCSRFFailed:
		return "CSRF Failed: CSRF token missing or incorrect."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to perform this action."
	case ErrNotQuizAuthor:
		return "You are not the author of this quiz."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Check the submitted fields."
	case ErrInvalidID:
		return "Invalid ID format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Quiz-specific ─────────────────────────────────────────────────
	case ErrQuizNotAvailable:
		return "This quiz is not accepting attempts."
	case ErrQuizNotEditable:
		return "Slots can only be changed before the quiz opens."
	case ErrNoSlots:
		return "The quiz has no slots."
	case ErrAttemptSubmitted:
		return "This attempt has already been submitted."
	case ErrUnknownSlot:
		return "The answer references a slot outside this quiz."
	case ErrBankProblemMissing:
		return "The problem does not belong to the selected bank."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "Unexpected error."
	}
}
