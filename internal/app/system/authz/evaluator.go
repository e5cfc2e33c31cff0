// internal/app/system/authz/evaluator.go
package authz

// Has reports whether role holds perm, either directly or through the
// wildcard. Unknown roles hold nothing.
func Has(role Role, perm Permission) bool {
	granted, ok := table[role]
	if !ok {
		return false
	}
	if _, all := granted[PermAll]; all {
		return true
	}
	_, has := granted[perm]
	return has
}

// HasAny reports whether role holds at least one of perms.
// An empty list is never satisfied.
func HasAny(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if Has(role, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether role holds every one of perms. Unknown roles fail
// even for an empty list.
func HasAll(role Role, perms ...Permission) bool {
	if _, ok := table[role]; !ok {
		return false
	}
	for _, p := range perms {
		if !Has(role, p) {
			return false
		}
	}
	return true
}
