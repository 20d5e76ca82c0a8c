// Package recognize classifies DOM nodes into typed UI component kinds using
// a declarative pattern library. Patterns are data, the resolution algorithm
// is fixed: new component kinds are added by contributing patterns and a
// widget mapper, never by changing the resolution rules.
package recognize

// Kind is one member of the fixed vocabulary of recognizable UI patterns.
type Kind string

const (
	KindHero         Kind = "hero"
	KindHeader       Kind = "header"
	KindMenu         Kind = "menu"
	KindCard         Kind = "card"
	KindButton       Kind = "button"
	KindSubmitButton Kind = "submit-button"
	KindIconBox      Kind = "icon-box"
	KindCounter      Kind = "counter"
	KindAlert        Kind = "alert"
	KindCallToAction Kind = "call-to-action"
	KindPostsGrid    Kind = "posts-grid"
	KindFlipBox      Kind = "flip-box"
	KindSocialIcons  Kind = "social-icons"
	KindImage        Kind = "image"
	KindIcon         Kind = "icon"
	KindSection      Kind = "section"
	KindContainer    Kind = "container"
	KindColumn       Kind = "column"
	KindUnknown      Kind = "unknown"
)

// Kinds lists every recognizable kind except the unknown fallback.
func Kinds() []Kind {
	return []Kind{
		KindHero, KindHeader, KindMenu, KindCard, KindButton,
		KindSubmitButton, KindIconBox, KindCounter, KindAlert,
		KindCallToAction, KindPostsGrid, KindFlipBox, KindSocialIcons,
		KindImage, KindIcon, KindSection, KindContainer, KindColumn,
	}
}

// IsLayout reports whether the kind describes page structure rather than
// renderable content. Layout kinds recurse during hierarchy building.
func (k Kind) IsLayout() bool {
	switch k {
	case KindSection, KindContainer, KindColumn:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}
