package auth

// Capability names a permission checked before an action is allowed.
type Capability string

const (
	CapAppointmentAnalyticsRead Capability = "analytics:appointments:read"
	CapPatientAnamnesisRead     Capability = "patient:anamnesis:read"
	CapCaregiverTokensManage    Capability = "caregiver:tokens:manage"
	CapIntegrationsRead         Capability = "settings:integrations:read"
	CapIntegrationsWrite        Capability = "settings:integrations:write"
	CapReferralsRead            Capability = "referrals:read"
	CapReferralsWrite           Capability = "referrals:write"
	CapTelehealthLinkCreate     Capability = "telehealth:link:create"
)

// Roles known to the default policy.
const (
	RoleAdmin        = "admin"
	RolePhysician    = "physician"
	RoleNurse        = "nurse"
	RoleBilling      = "billing"
	RoleSocialWorker = "social_worker"
	RoleFrontDesk    = "front_desk"
)

// AllCapabilities lists the vocabulary. RoleAdmin is granted all of it.
func AllCapabilities() []Capability {
	return []Capability{
		CapAppointmentAnalyticsRead,
		CapPatientAnamnesisRead,
		CapCaregiverTokensManage,
		CapIntegrationsRead,
		CapIntegrationsWrite,
		CapReferralsRead,
		CapReferralsWrite,
		CapTelehealthLinkCreate,
	}
}

// Policy maps a role to the capabilities it grants.
type Policy map[string][]Capability

// DefaultPolicy is the clinic's standard role table. RoleAdmin is added by
// NewGate with every capability of AllCapabilities.
func DefaultPolicy() Policy {
	return Policy{
		RolePhysician: {
			CapPatientAnamnesisRead,
			CapReferralsRead,
			CapReferralsWrite,
			CapTelehealthLinkCreate,
		},
		RoleNurse: {
			CapPatientAnamnesisRead,
			CapCaregiverTokensManage,
			CapReferralsRead,
			CapTelehealthLinkCreate,
		},
		RoleBilling: {
			CapAppointmentAnalyticsRead,
		},
		RoleSocialWorker: {
			CapPatientAnamnesisRead,
			CapCaregiverTokensManage,
			CapReferralsRead,
		},
		RoleFrontDesk: {
			CapReferralsRead,
			CapReferralsWrite,
			CapTelehealthLinkCreate,
		},
	}
}
