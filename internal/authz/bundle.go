package authz

// BundleField pairs a UI-facing capability name with the single code it
// mirrors. Bundles are a convenience cache, not logic: every field is exactly
// one Can lookup, and compound checks must compose CanAny/CanAll at the call
// site instead of growing a custom field here.
type BundleField struct {
	Name string
	Code Code
}

// bundles declares, per module, the capability booleans the front end
// consumes. Declared as data so a new permission is added in one place and
// the projection into a record stays mechanical.
var bundles = map[string][]BundleField{
	"accounting": {
		{Name: "canViewSegments", Code: Code{"accounting", "segments", ActionViewPage}},
		{Name: "canCreateSegment", Code: Code{"accounting", "segments", "create"}},
		{Name: "canUpdateSegment", Code: Code{"accounting", "segments", "update"}},
		{Name: "canDeleteSegment", Code: Code{"accounting", "segments", "delete"}},
		{Name: "canExportSegments", Code: Code{"accounting", "segments", "export"}},
		{Name: "canViewCities", Code: Code{"accounting", "cities", ActionViewPage}},
		{Name: "canCreateCity", Code: Code{"accounting", "cities", "create"}},
		{Name: "canUpdateCity", Code: Code{"accounting", "cities", "update"}},
		{Name: "canDeleteCity", Code: Code{"accounting", "cities", "delete"}},
		{Name: "canViewDeclarations", Code: Code{"accounting", "declarations", ActionViewPage}},
		{Name: "canCreateDeclaration", Code: Code{"accounting", "declarations", "create"}},
		{Name: "canUpdateDeclaration", Code: Code{"accounting", "declarations", "update"}},
		{Name: "canDeleteDeclaration", Code: Code{"accounting", "declarations", "delete"}},
		{Name: "canSubmitDeclaration", Code: Code{"accounting", "declarations", "submit"}},
	},
	"training": {
		{Name: "canViewCourses", Code: Code{"training", "courses", ActionViewPage}},
		{Name: "canCreateCourse", Code: Code{"training", "courses", "create"}},
		{Name: "canUpdateCourse", Code: Code{"training", "courses", "update"}},
		{Name: "canDeleteCourse", Code: Code{"training", "courses", "delete"}},
		{Name: "canViewSessions", Code: Code{"training", "sessions", ActionViewPage}},
		{Name: "canCreateSession", Code: Code{"training", "sessions", "create"}},
		{Name: "canUpdateSession", Code: Code{"training", "sessions", "update"}},
		{Name: "canDeleteSession", Code: Code{"training", "sessions", "delete"}},
		{Name: "canAssignProfessor", Code: Code{"training", "sessions", "assign_professor"}},
		{Name: "canViewTrainees", Code: Code{"training", "trainees", ActionViewPage}},
		{Name: "canCreateTrainee", Code: Code{"training", "trainees", "create"}},
		{Name: "canUpdateTrainee", Code: Code{"training", "trainees", "update"}},
		{Name: "canDeleteTrainee", Code: Code{"training", "trainees", "delete"}},
		{Name: "canEnrollTrainee", Code: Code{"training", "trainees", "enroll"}},
	},
	"hr": {
		{Name: "canViewEmployees", Code: Code{"hr", "employees", ActionViewPage}},
		{Name: "canCreateEmployee", Code: Code{"hr", "employees", "create"}},
		{Name: "canUpdateEmployee", Code: Code{"hr", "employees", "update"}},
		{Name: "canDeleteEmployee", Code: Code{"hr", "employees", "delete"}},
		{Name: "canViewPayroll", Code: Code{"hr", "payroll", ActionViewPage}},
		{Name: "canGeneratePayroll", Code: Code{"hr", "payroll", "generate"}},
		{Name: "canExportPayroll", Code: Code{"hr", "payroll", "export"}},
		{Name: "canViewAttendance", Code: Code{"hr", "attendance", ActionViewPage}},
		{Name: "canRecordAttendance", Code: Code{"hr", "attendance", "record"}},
	},
	"commercialization": {
		{Name: "canViewProspects", Code: Code{"commercialization", "prospects", ActionViewPage}},
		{Name: "canCreateProspect", Code: Code{"commercialization", "prospects", "create"}},
		{Name: "canUpdateProspect", Code: Code{"commercialization", "prospects", "update"}},
		{Name: "canDeleteProspect", Code: Code{"commercialization", "prospects", "delete"}},
		{Name: "canConvertProspect", Code: Code{"commercialization", "prospects", "convert"}},
		{Name: "canViewContracts", Code: Code{"commercialization", "contracts", ActionViewPage}},
		{Name: "canCreateContract", Code: Code{"commercialization", "contracts", "create"}},
		{Name: "canUpdateContract", Code: Code{"commercialization", "contracts", "update"}},
		{Name: "canTerminateContract", Code: Code{"commercialization", "contracts", "terminate"}},
	},
	"settings": {
		{Name: "canViewUsers", Code: Code{"settings", "users", ActionViewPage}},
		{Name: "canCreateUser", Code: Code{"settings", "users", "create"}},
		{Name: "canUpdateUser", Code: Code{"settings", "users", "update"}},
		{Name: "canDeleteUser", Code: Code{"settings", "users", "delete"}},
		{Name: "canResetPassword", Code: Code{"settings", "users", "reset_password"}},
		{Name: "canViewRoles", Code: Code{"settings", "roles", ActionViewPage}},
		{Name: "canCreateRole", Code: Code{"settings", "roles", "create"}},
		{Name: "canUpdateRole", Code: Code{"settings", "roles", "update"}},
		{Name: "canDeleteRole", Code: Code{"settings", "roles", "delete"}},
		{Name: "canAssignPermissions", Code: Code{"settings", "roles", "assign_permissions"}},
		{Name: "canViewPermissions", Code: Code{"settings", "permissions", ActionViewPage}},
	},
}

// BundleFields returns the declared capability fields of module, in declared
// order. Nil for a module without a bundle.
func BundleFields(module string) []BundleField {
	return bundles[module]
}

// Bundle projects the module's capability fields against the principal, one
// Can lookup per field.
func Bundle(p Principal, module string) map[string]bool {
	fields := bundles[module]
	if fields == nil {
		return nil
	}
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f.Name] = Can(p, f.Code)
	}
	return out
}
