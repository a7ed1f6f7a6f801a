package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotFound         ErrCode = "EXAM_NOT_FOUND"
	ErrNoQuestions          ErrCode = "NO_QUESTIONS"
	ErrInvalidQuestion      ErrCode = "INVALID_QUESTION"
	ErrAttemptNotFound      ErrCode = "ATTEMPT_NOT_FOUND"
	ErrQuestionNotInExam    ErrCode = "QUESTION_NOT_IN_EXAM"
	ErrInvalidAnswer        ErrCode = "INVALID_ANSWER"
	ErrAttachmentNotAllowed ErrCode = "ATTACHMENT_NOT_ALLOWED"
	ErrResultNotReady       ErrCode = "RESULT_NOT_READY"

	// ─── Generation ────────────────────────────────────────────────────
	ErrBatchNotFound ErrCode = "GENERATION_BATCH_NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal          ErrCode = "INTERNAL_ERROR"
	ErrEventsUnavailable ErrCode = "EVENTS_UNAVAILABLE"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotFound:
		return "Exam not found."
	case ErrNoQuestions:
		return "The exam has no questions."
	case ErrInvalidQuestion:
		return "The question is not valid for its kind."
	case ErrAttemptNotFound:
		return "Exam attempt not found or already closed."
	case ErrQuestionNotInExam:
		return "The question does not belong to this exam."
	case ErrInvalidAnswer:
		return "The answer is not one of the question's options."
	case ErrAttachmentNotAllowed:
		return "This question does not accept attachments."
	case ErrResultNotReady:
		return "The attempt has not been submitted yet."

	// ─── Generation ────────────────────────────────────────────────────
	case ErrBatchNotFound:
		return "Generated question batch not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	case ErrEventsUnavailable:
		return "Live exam events require Redis."
	default:
		return "An unexpected error occurred."
	}
}
