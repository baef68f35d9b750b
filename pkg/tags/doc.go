// Package tags manages the tags that label translations and resolves tag
// filter tokens for search.
package tags
