package change

// CommentTarget is the "COMMENT ON <target>" clause for one object, e.g.
// "TABLE public.users" or "COLUMN public.users.id" or "FUNCTION
// public.foo(int)". Per-kind builders supply this; the comment payloads
// below are kind-agnostic.
type CommentTarget string

type createComment struct {
	target CommentTarget
	text   string
}

func (p createComment) Serialize(opts SerializeOptions) string {
	return sqlf("COMMENT ON %s IS %s", p.target, EscapeLiteral(p.text))
}

type dropComment struct {
	target CommentTarget
}

func (p dropComment) Serialize(opts SerializeOptions) string {
	return sqlf("COMMENT ON %s IS NULL", p.target)
}

// CreateCommentOn builds the Change that sets (or replaces) a comment.
// Per spec.md §4.2 comment diff: "null->nonnull yields CreateCommentOn;
// ... change yields CreateCommentOn" (COMMENT IS is a valid replacement).
func CreateCommentOn(objectType string, objectID string, target CommentTarget, text string) Change {
	return Change{
		Operation:  OpCreate,
		ObjectType: objectType,
		Scope:      ScopeComment,
		Provides:   []string{"comment:" + objectID},
		Requires:   []string{objectID},
		Payload:    createComment{target: target, text: text},
	}
}

// DropCommentOn builds the Change that clears a comment (nonnull->null).
func DropCommentOn(objectType string, objectID string, target CommentTarget) Change {
	return Change{
		Operation:  OpDrop,
		ObjectType: objectType,
		Scope:      ScopeComment,
		Drops:      []string{"comment:" + objectID},
		Requires:   []string{objectID},
		Payload:    dropComment{target: target},
	}
}
