// Package keytree converts between flat dot-delimited translation keys and
// nested documents.
package keytree

import (
	"sort"
	"strings"
)

// Separator splits a key into tree levels
const Separator = "."

// Nest turns {"auth.login": "Login"} into {"auth": {"login": "Login"}}.
//
// Keys are applied in lexicographic order. When a key is both a leaf and a
// prefix of a deeper key ("a" and "a.b"), the later write wins: the deeper
// key replaces the leaf with a subtree, so the output depends only on the
// input.
func Nest(flat map[string]string) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tree := make(map[string]any)
	for _, key := range keys {
		set(tree, strings.Split(key, Separator), flat[key])
	}
	return tree
}

func set(tree map[string]any, segments []string, value string) {
	node := tree
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[segment] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
}

// Flatten is the inverse of Nest for trees without leaf/prefix collisions
func Flatten(tree map[string]any) map[string]string {
	flat := make(map[string]string)
	flatten(flat, "", tree)
	return flat
}

func flatten(flat map[string]string, prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(flat, key, v)
		case string:
			flat[key] = v
		}
	}
}
