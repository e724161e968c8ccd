package permissions

func init() {
	types := []TypeDef{
		{Code: "C", Name: "Create"},
		{Code: "R", Name: "Read"},
		{Code: "U", Name: "Update"},
		{Code: "D", Name: "Delete"},
		{Code: "A", Name: "Approve"},
		{Code: "M", Name: "Manage"},
	}
	for _, t := range types {
		if err := RegisterType(t); err != nil {
			panic(err)
		}
	}

	modules := []ModuleDef{
		{Code: "COMPANIES", Name: "Companies"},
		{Code: "DEPARTMENTS", Name: "Departments"},
		{Code: "POSITIONS", Name: "Positions"},
		{Code: "EMPLOYEES", Name: "Employees"},
		{Code: "COMPETENCIES", Name: "Competencies"},
		{Code: "ASSESSMENTS", Name: "Assessments"},
		{Code: "DEVELOPMENT_PLANS", Name: "Development Plans"},
		{Code: "ROLES", Name: "Roles"},
		{Code: "USERS", Name: "Users"},
		{Code: "AUDIT", Name: "Audit Log"},
		{Code: "REPORTS", Name: "Reports"},
	}
	for _, m := range modules {
		if err := RegisterModule(m); err != nil {
			panic(err)
		}
	}
}

// Catalog is the static permission matrix served to clients. It never changes
// at runtime, so responses built from it are safe to cache.
type Catalog struct {
	Modules     []ModuleDef `json:"modules"`
	Types       []TypeDef   `json:"permission_types"`
	Permissions []string    `json:"permissions"`
}

// BuildCatalog snapshots the registry into a serialisable catalog.
func BuildCatalog() Catalog {
	return Catalog{
		Modules:     Modules(),
		Types:       Types(),
		Permissions: AllNames(),
	}
}
