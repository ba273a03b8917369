package phoneverify

import "context"

// Verifier is the phone-verification collaborator. A verification cycle is
// request-then-check: RequestCode puts a code in flight for the number,
// CheckCode reports whether the submitted code is approved.
type Verifier interface {
	RequestCode(ctx context.Context, phone string) error
	CheckCode(ctx context.Context, phone, code string) (bool, error)
}
