// Package differ implements the per-kind differs (C4): given the
// "main" and "branch" snapshot of one entity kind, produce the flat
// Change list that would transform main into branch (spec.md §4.2).
package differ

import (
	"sort"

	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
)

// partition splits the keys of two stableId->entity maps into created
// (present only in branch), dropped (present only in main), and altered
// (present in both but !Equal), each returned in sorted stable-ID order
// for determinism (spec.md §4.2: "map-key diffing").
func partition[T catalog.Entity](main, branch map[string]T) (created, dropped, altered []string) {
	for id := range branch {
		if _, ok := main[id]; !ok {
			created = append(created, id)
		}
	}
	for id := range main {
		if _, ok := branch[id]; !ok {
			dropped = append(dropped, id)
		}
	}
	for id, oldVal := range main {
		newVal, ok := branch[id]
		if !ok {
			continue
		}
		if !catalog.Equal(oldVal, newVal) {
			altered = append(altered, id)
		}
	}
	sort.Strings(created)
	sort.Strings(dropped)
	sort.Strings(altered)
	return created, dropped, altered
}

// diffComment emits the comment-scope Change for one object, given its
// old and new Comment pointer (spec.md §4.2: "null->nonnull yields
// CreateCommentOn; nonnull->null yields DropCommentOn; change yields
// CreateCommentOn").
func diffComment(objectType, objectID string, target change.CommentTarget, oldC, newC catalog.Comment) []change.Change {
	switch {
	case oldC == nil && newC != nil:
		return []change.Change{change.CreateCommentOn(objectType, objectID, target, *newC)}
	case oldC != nil && newC == nil:
		return []change.Change{change.DropCommentOn(objectType, objectID, target)}
	case oldC != nil && newC != nil && *oldC != *newC:
		return []change.Change{change.CreateCommentOn(objectType, objectID, target, *newC)}
	default:
		return nil
	}
}

// diffPrivileges emits one Change per {grantee, action} where action is
// grant, revoke, or grant-option-revoke, grouping by grantee as spec.md
// §4.2 describes ("emit Grant<K>Privileges for each grantee x
// {grantable=true, grantable=false} group").
func diffPrivileges(objectType, objectID string, target change.GrantTarget, old, new []catalog.Privilege) []change.Change {
	type key struct {
		grantee   string
		grantable bool
	}
	oldByKey := map[key][]string{}
	for _, p := range old {
		k := key{p.Grantee, p.Grantable}
		oldByKey[k] = append(oldByKey[k], p.Privilege)
	}
	newByKey := map[key][]string{}
	for _, p := range new {
		k := key{p.Grantee, p.Grantable}
		newByKey[k] = append(newByKey[k], p.Privilege)
	}

	var changes []change.Change

	var keys []key
	seen := map[key]bool{}
	for k := range oldByKey {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range newByKey {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].grantee != keys[j].grantee {
			return keys[i].grantee < keys[j].grantee
		}
		return !keys[i].grantable && keys[j].grantable
	})

	// Privileges whose grantable flag flips belong to the transition
	// paths, not the add/remove path: true -> false is a grant-option
	// revoke keeping the base privilege, false -> true is a fresh
	// GRANT ... WITH GRANT OPTION with no revoke of the old grant.
	grantees := groupGrantees(old, new)
	downgraded := map[string][]string{}
	upgraded := map[string][]string{}
	for _, grantee := range grantees {
		downgraded[grantee] = stringSetIntersect(oldByKey[key{grantee, true}], newByKey[key{grantee, false}])
		upgraded[grantee] = stringSetIntersect(oldByKey[key{grantee, false}], newByKey[key{grantee, true}])
	}

	for _, k := range keys {
		oldPrivs, newPrivs := oldByKey[k], newByKey[k]
		added := stringSetDiff(newPrivs, oldPrivs)
		removed := stringSetDiff(oldPrivs, newPrivs)
		if k.grantable {
			removed = stringSetDiff(removed, downgraded[k.grantee])
		} else {
			added = stringSetDiff(added, downgraded[k.grantee])
			removed = stringSetDiff(removed, upgraded[k.grantee])
		}
		if len(added) > 0 {
			changes = append(changes, change.GrantPrivileges(objectType, objectID, target, k.grantee, added, k.grantable))
		}
		if len(removed) > 0 {
			changes = append(changes, change.RevokePrivileges(objectType, objectID, target, k.grantee, removed))
		}
	}

	for _, grantee := range grantees {
		if common := downgraded[grantee]; len(common) > 0 {
			changes = append(changes, change.RevokeGrantOptionFor(objectType, objectID, target, grantee, common))
		}
	}

	return changes
}

func groupGrantees(old, new []catalog.Privilege) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range append(append([]catalog.Privilege(nil), old...), new...) {
		if !seen[p.Grantee] {
			seen[p.Grantee] = true
			out = append(out, p.Grantee)
		}
	}
	sort.Strings(out)
	return out
}

func stringSetDiff(a, b []string) []string {
	inB := map[string]bool{}
	for _, s := range b {
		inB[s] = true
	}
	var out []string
	for _, s := range a {
		if !inB[s] {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func stringSetIntersect(a, b []string) []string {
	inB := map[string]bool{}
	for _, s := range b {
		inB[s] = true
	}
	var out []string
	for _, s := range a {
		if inB[s] {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
