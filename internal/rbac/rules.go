package rbac

const (
	RoleVisitor = "visitor"
	RoleOwner   = "owner"
)

const (
	PermQuizTake       = "quiz:take"
	PermReportView     = "report:view"
	PermFreeCodeCreate = "freecode:create"
	PermFreeCodeList   = "freecode:list"
)

var RolePermissions = map[string][]string{
	RoleVisitor: {
		PermQuizTake,
		PermReportView,
	},
	RoleOwner: {
		"*",
	},
}
