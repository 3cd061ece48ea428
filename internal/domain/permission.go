package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPermission = errors.New("unknown permission")

// Permission is a single action a role may be allowed to perform.
type Permission string

const (
	ViewPatient   Permission = "view_patient"
	CreatePatient Permission = "create_patient"
	EditPatient   Permission = "edit_patient"
	DeletePatient Permission = "delete_patient"

	ViewMonitoringPlan   Permission = "view_monitoring_plan"
	CreateMonitoringPlan Permission = "create_monitoring_plan"
	EditMonitoringPlan   Permission = "edit_monitoring_plan"
	DeleteMonitoringPlan Permission = "delete_monitoring_plan"
	AssignMonitoringPlan Permission = "assign_monitoring_plan"

	ViewSymptoms   Permission = "view_symptoms"
	RecordSymptoms Permission = "record_symptoms"
	EditSymptoms   Permission = "edit_symptoms"

	ViewTeam         Permission = "view_team"
	InviteTeamMember Permission = "invite_team_member"
	RemoveTeamMember Permission = "remove_team_member"

	ViewPracticeSettings   Permission = "view_practice_settings"
	ManagePracticeSettings Permission = "manage_practice_settings"
	ManageSubscription     Permission = "manage_subscription"

	ViewReports     Permission = "view_reports"
	GenerateReports Permission = "generate_reports"
	ExportData      Permission = "export_data"

	ManageNotifications Permission = "manage_notifications"
)

var permissions = []Permission{
	ViewPatient, CreatePatient, EditPatient, DeletePatient,
	ViewMonitoringPlan, CreateMonitoringPlan, EditMonitoringPlan, DeleteMonitoringPlan, AssignMonitoringPlan,
	ViewSymptoms, RecordSymptoms, EditSymptoms,
	ViewTeam, InviteTeamMember, RemoveTeamMember,
	ViewPracticeSettings, ManagePracticeSettings, ManageSubscription,
	ViewReports, GenerateReports, ExportData,
	ManageNotifications,
}

// Permissions returns every permission in enumeration order.
func Permissions() []Permission {
	out := make([]Permission, len(permissions))
	copy(out, permissions)
	return out
}

func (p Permission) Valid() bool {
	return p.Index() >= 0
}

func (p Permission) String() string {
	return string(p)
}

// Index is the position of p in enumeration order, or -1.
func (p Permission) Index() int {
	for i, known := range permissions {
		if known == p {
			return i
		}
	}
	return -1
}

func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, s)
	}
	return p, nil
}
