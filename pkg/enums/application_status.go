package enums

// ApplicationStatus tracks a rental application through review.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "Pending"
	ApplicationStatusDenied   ApplicationStatus = "Denied"
	ApplicationStatusApproved ApplicationStatus = "Approved"
)

var validApplicationStatuses = set[ApplicationStatus]{
	ApplicationStatusPending,
	ApplicationStatusDenied,
	ApplicationStatusApproved,
}

// IsValid reports whether the value is a known ApplicationStatus.
func (a ApplicationStatus) IsValid() bool {
	return validApplicationStatuses.has(a)
}

// ParseApplicationStatus converts raw input into a ApplicationStatus.
func ParseApplicationStatus(value string) (ApplicationStatus, error) {
	return validApplicationStatuses.parse("application status", value)
}
