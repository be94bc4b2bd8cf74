package rbac

// RolePermissions is the default policy. Reviewers own the extraction and
// editing workflow; students only read exams and practice.
var RolePermissions = map[string][]string{
	"reviewer": {
		"exam:extract",
		"exam:create",
		"exam:view",
		"exam:edit",
		"exam:export",
		"exam:delete",
		"practice:*",
	},
	"student": {
		"exam:view",
		"practice:*",
	},
	"admin": {
		"*",
	},
}
