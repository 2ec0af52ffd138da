package models

import "fmt"

type Role string

const (
	RoleStudent     Role = "STUDENT"
	RoleCompany     Role = "COMPANY"
	RoleSchoolAdmin Role = "SCHOOL_ADMIN"
	RoleTeacher     Role = "TEACHER"
)

var Roles = []Role{RoleStudent, RoleCompany, RoleSchoolAdmin, RoleTeacher}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCompany, RoleSchoolAdmin, RoleTeacher:
		return true
	}
	return false
}

// HasDetail reports whether sign-up creates a role-specific record for r.
// Teachers have a table but no record is written for them.
func (r Role) HasDetail() bool {
	switch r {
	case RoleStudent, RoleCompany, RoleSchoolAdmin:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

type JobType string

const (
	JobTypeInternship JobType = "INTERNSHIP"
	JobTypeApprentice JobType = "APPRENTICE"
	JobTypeFullTime   JobType = "FULL_TIME"
	JobTypePartTime   JobType = "PART_TIME"
	JobTypeFreelance  JobType = "FREELANCE"
)

func (j JobType) Valid() bool {
	switch j {
	case JobTypeInternship, JobTypeApprentice, JobTypeFullTime, JobTypePartTime, JobTypeFreelance:
		return true
	}
	return false
}

type ApplicationStatus string

const (
	ApplicationApplied    ApplicationStatus = "APPLIED"
	ApplicationViewed     ApplicationStatus = "VIEWED"
	ApplicationInProgress ApplicationStatus = "IN_PROGRESS"
	ApplicationRejected   ApplicationStatus = "REJECTED"
	ApplicationHired      ApplicationStatus = "HIRED"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationApplied, ApplicationViewed, ApplicationInProgress, ApplicationRejected, ApplicationHired:
		return true
	}
	return false
}
