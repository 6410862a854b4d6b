package model

// Table names as exposed on the change channel and in the database.
const (
	TableMembers         = "members"
	TableAnnouncements   = "announcements"
	TableMaintenanceLogs = "maintenance_logs"
	TableVisitors        = "visitors"
	TablePayments        = "payments"
)

// Tables lists every table that publishes change events.
var Tables = []string{
	TableMembers,
	TableAnnouncements,
	TableMaintenanceLogs,
	TableVisitors,
	TablePayments,
}

// IsTable reports whether name is one of the known tables.
func IsTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}
