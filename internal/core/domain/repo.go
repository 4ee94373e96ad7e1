package domain

import "strings"

// SplitRepoName splits a repository identifier into owner and name.
// The identifier must contain exactly two non-empty segments separated by a slash.
// Segments are used as path elements, so dot segments and backslashes are rejected.
func SplitRepoName(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", NewRepoError(ErrInvalidRepoName, repo, nil)
	}
	for _, part := range parts {
		if strings.TrimSpace(part) != part || part == "." || part == ".." || strings.ContainsRune(part, '\\') {
			return "", "", NewRepoError(ErrInvalidRepoName, repo, nil)
		}
	}
	return parts[0], parts[1], nil
}

// ValidateRepoName reports whether repo is a well-formed identifier.
func ValidateRepoName(repo string) error {
	_, _, err := SplitRepoName(repo)
	return err
}
