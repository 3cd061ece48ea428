package permissions

import "myvetstudy/internal/domain"

// defaultTable returns a fresh copy of the role to permission table shipped
// with the application. Changing it requires a redeploy.
func defaultTable() map[domain.Role][]domain.Permission {
	return map[domain.Role][]domain.Permission{
		domain.PracticeManager: domain.Permissions(),

		domain.Veterinarian: {
			domain.ViewPatient,
			domain.CreatePatient,
			domain.EditPatient,
			domain.DeletePatient,
			domain.ViewMonitoringPlan,
			domain.CreateMonitoringPlan,
			domain.EditMonitoringPlan,
			domain.DeleteMonitoringPlan,
			domain.AssignMonitoringPlan,
			domain.ViewSymptoms,
			domain.RecordSymptoms,
			domain.EditSymptoms,
			domain.ViewTeam,
			domain.ViewPracticeSettings,
			domain.ViewReports,
			domain.GenerateReports,
			domain.ExportData,
			domain.ManageNotifications,
		},

		domain.VetTechnician: {
			domain.ViewPatient,
			domain.CreatePatient,
			domain.EditPatient,
			domain.ViewMonitoringPlan,
			domain.CreateMonitoringPlan,
			domain.EditMonitoringPlan,
			domain.AssignMonitoringPlan,
			domain.ViewSymptoms,
			domain.RecordSymptoms,
			domain.EditSymptoms,
			domain.ViewTeam,
			domain.ViewReports,
			domain.GenerateReports,
			domain.ManageNotifications,
		},

		domain.VetAssistant: {
			domain.ViewPatient,
			domain.CreatePatient,
			domain.ViewMonitoringPlan,
			domain.ViewSymptoms,
			domain.RecordSymptoms,
			domain.ViewTeam,
			domain.ViewReports,
		},

		domain.Receptionist: {
			domain.ViewPatient,
			domain.CreatePatient,
			domain.EditPatient,
			domain.ViewMonitoringPlan,
			domain.ViewTeam,
			domain.ViewPracticeSettings,
			domain.ManageNotifications,
		},

		domain.PetOwner: {
			domain.ViewPatient,
			domain.ViewMonitoringPlan,
			domain.ViewSymptoms,
			domain.RecordSymptoms,
			domain.ViewReports,
		},
	}
}
