package ir

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// namePattern is the shape of graph and collection names.
	namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	// keyPattern excludes the glob and brace metacharacters so that a node
	// id can always be written literally inside a path.
	keyPattern = regexp.MustCompile(`^[A-Za-z0-9_\-:.@()+=;$!'%]+$`)
)

// ValidName reports whether s is a valid graph or collection name.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// SplitNodeID splits a node id of the form "<collection>/<key>".
func SplitNodeID(id string) (collection, key string, err error) {
	collection, key, ok := strings.Cut(id, "/")
	if !ok {
		return "", "", fmt.Errorf("node id %q: missing collection separator", id)
	}
	if !namePattern.MatchString(collection) {
		return "", "", fmt.Errorf("node id %q: invalid collection %q", id, collection)
	}
	if !keyPattern.MatchString(key) {
		return "", "", fmt.Errorf("node id %q: invalid key %q", id, key)
	}
	return collection, key, nil
}

// ValidateNodeID returns an error when id does not have the node-id shape.
func ValidateNodeID(id string) error {
	_, _, err := SplitNodeID(id)
	return err
}

// CollectionOf returns the collection part of a node id, or "" when id is
// malformed.
func CollectionOf(id string) string {
	collection, _, err := SplitNodeID(id)
	if err != nil {
		return ""
	}
	return collection
}
