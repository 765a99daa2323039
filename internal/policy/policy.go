// Package policy implements declarative capture policies and the
// condition predicates that gate them. Policies carry intent only, never
// behavior; the engine maps them to resolved actions.
package policy

import "github.com/screenveil/screenveil/internal/domain"

// Kind identifies the policy variant. The set is closed: the engine is
// total over it and has no error path.
type Kind int

const (
	// KindAllow declares that capture is acceptable. Never requires
	// protection, regardless of conditions.
	KindAllow Kind = iota

	// KindObscure covers protected content with a visual style.
	KindObscure

	// KindBlock covers protected content with a full-screen message.
	KindBlock

	// KindLogout terminates the session when capture is detected.
	KindLogout
)

func (k Kind) String() string {
	switch k {
	case KindAllow:
		return "allow"
	case KindObscure:
		return "obscure"
	case KindBlock:
		return "block"
	case KindLogout:
		return "logout"
	default:
		return "unknown"
	}
}

// CapturePolicy is a declared protection intent. Construct via Allow,
// Obscure, Block, or Logout.
type CapturePolicy struct {
	Kind   Kind
	Style  domain.ObscureStyle // KindObscure only
	Reason string              // KindBlock only, may be empty
}

// Allow returns the policy that never protects.
func Allow() CapturePolicy {
	return CapturePolicy{Kind: KindAllow}
}

// Obscure returns a policy covering content with the given style.
func Obscure(style domain.ObscureStyle) CapturePolicy {
	return CapturePolicy{Kind: KindObscure, Style: style}
}

// Block returns a policy covering content with a message.
func Block(reason string) CapturePolicy {
	return CapturePolicy{Kind: KindBlock, Reason: reason}
}

// Logout returns the session-terminating policy.
func Logout() CapturePolicy {
	return CapturePolicy{Kind: KindLogout}
}

// RequiresProtection is pure on the variant: only Allow opts out.
func (p CapturePolicy) RequiresProtection() bool {
	return p.Kind != KindAllow
}

// Action maps the policy variant to its resolved action, unconditionally.
// Callers decide beforehand whether protection applies.
func (p CapturePolicy) Action() domain.ResolvedAction {
	switch p.Kind {
	case KindObscure:
		return domain.ObscureAction(p.Style)
	case KindBlock:
		return domain.BlockAction(p.Reason)
	case KindLogout:
		return domain.LogoutAction()
	default:
		return domain.NoAction()
	}
}
