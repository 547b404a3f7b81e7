package lti

import (
	"strings"
)

// Role URIs from the LIS v2 membership vocabulary.
const (
	RoleInstructor        = "http://purl.imsglobal.org/vocab/lis/v2/membership#Instructor"
	RoleTeachingAssistant = "http://purl.imsglobal.org/vocab/lis/v2/membership/Instructor#TeachingAssistant"
	RoleLearner           = "http://purl.imsglobal.org/vocab/lis/v2/membership#Learner"
	RoleMentor            = "http://purl.imsglobal.org/vocab/lis/v2/membership#Mentor"
)

// HasRole reports whether the roles claim contains the given role URI. The
// LTI spec allows platforms to send either the full URI or the bare simple
// name (e.g. "Instructor"), so both forms match.
func HasRole(roles []string, roleURI string) bool {
	simpleName := roleURI[strings.LastIndex(roleURI, "#")+1:]
	for _, role := range roles {
		if role == roleURI || role == simpleName {
			return true
		}
	}
	return false
}

// IsInstructor reports whether the roles claim grants instructor access.
func IsInstructor(roles []string) bool {
	return HasRole(roles, RoleInstructor)
}

// IsTeachingAssistant reports whether the roles claim grants teaching
// assistant access. Teaching assistants carry the Instructor role with a
// TeachingAssistant sub-role.
func IsTeachingAssistant(roles []string) bool {
	return HasRole(roles, RoleTeachingAssistant)
}

// IsLearner reports whether the roles claim grants student access.
func IsLearner(roles []string) bool {
	return HasRole(roles, RoleLearner)
}
