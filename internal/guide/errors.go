package guide

import "errors"

// Advisory conditions surfaced by Fetch. Every one of these still comes with
// a renderable guide — they are converted to in-UI messages, never rethrown.
var (
	// ErrNoPattern: no pattern id at all. An advisory, not a failure.
	ErrNoPattern = errors.New("no pattern selected")

	// ErrNotFound: the pattern API answered 404 for this specific pattern.
	ErrNotFound = errors.New("pattern not found")

	// ErrTimeout: the pattern API did not answer within the fetch budget.
	ErrTimeout = errors.New("pattern fetch timed out")

	// ErrNetwork: the fetch failed at transport level (offline, DNS, reset).
	ErrNetwork = errors.New("network unreachable")

	// ErrBadResponse: the pattern API answered but the body was unusable.
	ErrBadResponse = errors.New("malformed pattern response")

	// ErrRetryExhausted: the retry cap was hit; stop offering retries.
	ErrRetryExhausted = errors.New("retries exhausted")
)

// UserMessage maps an advisory to the user-legible line the UI shows above
// the (always rendered) guide. Each condition gets a distinct message so the
// user knows whether retrying is worthwhile.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoPattern):
		return "선택된 패턴이 없어 기본 가이드를 보여드려요"
	case errors.Is(err, ErrNotFound):
		return "이 패턴을 찾을 수 없어요. 기본 가이드로 촬영을 진행할 수 있어요"
	case errors.Is(err, ErrTimeout):
		return "서버 응답이 지연되고 있어요. 잠시 후 다시 시도해 주세요"
	case errors.Is(err, ErrNetwork):
		return "인터넷 연결을 확인해 주세요"
	case errors.Is(err, ErrBadResponse):
		return "패턴 정보를 불러오지 못해 기본 가이드를 보여드려요"
	case errors.Is(err, ErrRetryExhausted):
		return "여러 번 시도했지만 실패했어요. 화면을 새로고침해 주세요"
	default:
		return "잠시 문제가 있었어요. 기본 가이드로 계속할 수 있어요"
	}
}

// Retryable reports whether the UI should keep offering a retry action for
// this advisory. Only retry exhaustion turns the action off.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrRetryExhausted) && !errors.Is(err, ErrNoPattern)
}
