package services

import (
	"net/http"

	apperrors "github.com/careerhub/careerhub/pkg/errors"
)

// Typed errors surfaced by the mutation services. The API layer translates
// them into HTTP statuses; a denied permission check is never one of these.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrRoleNotFound indicates the requested role does not exist.
	ErrRoleNotFound = apperrors.New("ROLE_NOT_FOUND", "Role not found", http.StatusNotFound)
	// ErrPermissionNotFound indicates the referenced permission is not in the catalog.
	ErrPermissionNotFound = apperrors.New("PERMISSION_NOT_FOUND", "Permission not found", http.StatusNotFound)
	// ErrOverrideNotFound indicates no active override matches the request.
	ErrOverrideNotFound = apperrors.New("OVERRIDE_NOT_FOUND", "Permission override not found", http.StatusNotFound)
	// ErrAssignmentNotFound indicates the user holds no active assignment of the role.
	ErrAssignmentNotFound = apperrors.New("ASSIGNMENT_NOT_FOUND", "User has no active assignment of this role", http.StatusNotFound)

	// ErrDuplicateAssignment rejects assigning a role the user already actively holds.
	ErrDuplicateAssignment = apperrors.New("ROLE_ALREADY_ASSIGNED", "User already holds an active assignment of this role", http.StatusConflict)
	// ErrRoleInUse prevents deleting a role while active assignments reference it.
	ErrRoleInUse = apperrors.New("ROLE_IN_USE", "Role still has active user assignments", http.StatusConflict)

	// ErrSystemRoleImmutable prevents edits to system roles through the standard path.
	ErrSystemRoleImmutable = apperrors.New("SYSTEM_ROLE_IMMUTABLE", "System roles cannot be modified", http.StatusForbidden)

	// ErrReasonRequired rejects override mutations without an audit reason.
	ErrReasonRequired = apperrors.New("REASON_REQUIRED", "A reason is required for this change", http.StatusUnprocessableEntity)
	// ErrExpiryInPast rejects expiry timestamps that have already passed.
	ErrExpiryInPast = apperrors.New("EXPIRY_IN_PAST", "Expiry must be in the future", http.StatusUnprocessableEntity)
)
