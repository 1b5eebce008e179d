package records

import "github.com/ogurasousui/personnel-core/internal/core/resource"

var (
	trainingStatuses     = []string{"Planificado", "En curso", "Completado", "Rechazado"}
	requestStatuses      = []string{"Solicitado", "Aprobado", "Rechazado"}
	disciplinaryStatuses = []string{"Iniciado", "En proceso", "Cerrado"}
	annotationTypes      = []string{"Positiva", "Negativa"}
	roles                = []string{"Administrador", "Funcionario"}
)

func employeeRef() Field {
	return Field{Name: "employee_id", Type: TypeInt, Required: true}
}

// DefaultSchemas は 16 種別の標準スキーマを返します。
func DefaultSchemas() []Schema {
	return []Schema{
		{
			Kind:  resource.Accounts,
			Table: "accounts",
			Fields: []Field{
				{Name: "external_id", Type: TypeText, Required: true},
				{Name: "email", Type: TypeText, Required: true},
				{Name: "password", Column: "password_hash", Type: TypeSecret, Required: true},
				{Name: "role", Type: TypeEnum, Enum: roles, Default: "Funcionario"},
				{Name: "active", Type: TypeBool, Default: true},
			},
			OrderBy: "id",
			Cascade: true,
		},
		{
			Kind:  resource.Employees,
			Table: "employees",
			Fields: []Field{
				{Name: "account_id", Type: TypeInt, Required: true},
				{Name: "given_names", Type: TypeText, Required: true},
				{Name: "paternal_surname", Type: TypeText, Required: true},
				{Name: "maternal_surname", Type: TypeText},
				{Name: "birth_date", Type: TypeDate},
				{Name: "gender", Type: TypeText},
				{Name: "hire_date", Type: TypeDate, Required: true},
				{Name: "active", Type: TypeBool, Default: true},
			},
			OwnerField: "id",
			OrderBy:    "paternal_surname",
			Cascade:    true,
		},
		{
			Kind:  resource.Positions,
			Table: "positions",
			Fields: []Field{
				{Name: "name", Type: TypeText, Required: true},
				{Name: "grade", Type: TypeInt, Required: true},
				{Name: "level", Type: TypeText, Required: true},
				{Name: "active", Type: TypeBool, Default: true},
			},
			OrderBy: "name",
		},
		{
			Kind:  resource.CertificateTemplates,
			Table: "certificate_templates",
			Fields: []Field{
				{Name: "name", Type: TypeText, Required: true},
				{Name: "code", Type: TypeText, Required: true},
				{Name: "template_body", Type: TypeText, Required: true},
				{Name: "active", Type: TypeBool, Default: true},
			},
			OrderBy: "name",
		},
		{
			Kind:  resource.Contacts,
			Table: "employee_contacts",
			Fields: []Field{
				employeeRef(),
				{Name: "contact_name", Type: TypeText, Required: true},
				{Name: "relationship", Type: TypeText},
				{Name: "phone", Type: TypeText, Required: true},
				{Name: "email", Type: TypeText},
			},
			OwnerField: "employee_id",
			OrderBy:    "id",
		},
		{
			Kind:  resource.PositionHistory,
			Table: "position_history",
			Fields: []Field{
				employeeRef(),
				{Name: "position_id", Type: TypeInt, Required: true},
				{Name: "start_date", Type: TypeDate, Required: true},
				{Name: "end_date", Type: TypeDate},
				{Name: "active", Type: TypeBool, Default: false},
			},
			OwnerField:      "employee_id",
			OrderBy:         "start_date",
			OrderDesc:       true,
			ExclusiveActive: "active",
		},
		{
			Kind:  resource.Biennia,
			Table: "biennia",
			Fields: []Field{
				employeeRef(),
				{Name: "period_start", Type: TypeDate, Required: true},
				{Name: "period_end", Type: TypeDate, Required: true},
				{Name: "fulfilled", Type: TypeBool, Default: false},
				{Name: "fulfillment_date", Type: TypeDate},
			},
			OwnerField: "employee_id",
			OrderBy:    "period_start",
			OrderDesc:  true,
		},
		{
			Kind:  resource.Studies,
			Table: "studies",
			Fields: []Field{
				employeeRef(),
				{Name: "study_type", Type: TypeText, Required: true},
				{Name: "institution", Type: TypeText, Required: true},
				{Name: "title", Type: TypeText, Required: true},
				{Name: "start_date", Type: TypeDate, Required: true},
				{Name: "end_date", Type: TypeDate},
				{Name: "graduation_date", Type: TypeDate},
				{Name: "document_ref", Type: TypeText},
			},
			OwnerField: "employee_id",
			OrderBy:    "start_date",
			OrderDesc:  true,
		},
		{
			Kind:  resource.Trainings,
			Table: "trainings",
			Fields: []Field{
				employeeRef(),
				{Name: "course_name", Type: TypeText, Required: true},
				{Name: "institution", Type: TypeText, Required: true},
				{Name: "start_date", Type: TypeDate, Required: true},
				{Name: "end_date", Type: TypeDate, Required: true},
				{Name: "hours", Type: TypeInt, Required: true},
				{Name: "score", Type: TypeDecimal},
				{Name: "document_ref", Type: TypeText},
				{Name: "status", Type: TypeEnum, Enum: trainingStatuses, Default: "Planificado"},
			},
			OwnerField: "employee_id",
			OrderBy:    "start_date",
			OrderDesc:  true,
		},
		{
			Kind:  resource.Evaluations,
			Table: "evaluations",
			Fields: []Field{
				employeeRef(),
				{Name: "period", Type: TypeText, Required: true},
				{Name: "score", Type: TypeDecimal, Required: true},
				{Name: "evaluator", Type: TypeText, Required: true},
				{Name: "evaluated_on", Type: TypeDate, Required: true},
				{Name: "remarks", Type: TypeText},
			},
			OwnerField: "employee_id",
			OrderBy:    "evaluated_on",
			OrderDesc:  true,
		},
		{
			Kind:  resource.Annotations,
			Table: "annotations",
			Fields: []Field{
				employeeRef(),
				{Name: "annotation_type", Type: TypeEnum, Enum: annotationTypes, Required: true},
				{Name: "description", Type: TypeText, Required: true},
				{Name: "annotated_on", Type: TypeDate, Required: true},
				{Name: "document_ref", Type: TypeText},
			},
			OwnerField: "employee_id",
			OrderBy:    "annotated_on",
			OrderDesc:  true,
		},
		{
			Kind:  resource.DisciplinaryCases,
			Table: "disciplinary_cases",
			Fields: []Field{
				employeeRef(),
				{Name: "case_number", Type: TypeText, Required: true},
				{Name: "description", Type: TypeText, Required: true},
				{Name: "start_date", Type: TypeDate, Required: true},
				{Name: "end_date", Type: TypeDate},
				{Name: "outcome", Type: TypeText},
				{Name: "status", Type: TypeEnum, Enum: disciplinaryStatuses, Default: "Iniciado"},
			},
			OwnerField: "employee_id",
			OrderBy:    "start_date",
			OrderDesc:  true,
		},
		{
			Kind:  resource.AdministrativeLeave,
			Table: "administrative_leave",
			Fields: []Field{
				employeeRef(),
				{Name: "leave_type", Type: TypeText, Required: true},
				{Name: "requested_on", Type: TypeDate, Required: true},
				{Name: "start_date", Type: TypeDate, Required: true},
				{Name: "end_date", Type: TypeDate, Required: true},
				{Name: "reason", Type: TypeText, Required: true},
				{Name: "status", Type: TypeEnum, Enum: requestStatuses, Default: "Solicitado"},
			},
			OwnerField: "employee_id",
			OrderBy:    "requested_on",
			OrderDesc:  true,
		},
		{
			Kind:  resource.CompensatoryLeave,
			Table: "compensatory_leave",
			Fields: []Field{
				employeeRef(),
				{Name: "requested_on", Type: TypeDate, Required: true},
				{Name: "leave_date", Type: TypeDate, Required: true},
				{Name: "hours", Type: TypeInt, Required: true},
				{Name: "reason", Type: TypeText, Required: true},
				{Name: "status", Type: TypeEnum, Enum: requestStatuses, Default: "Solicitado"},
			},
			OwnerField: "employee_id",
			OrderBy:    "requested_on",
			OrderDesc:  true,
		},
		{
			Kind:  resource.Assignments,
			Table: "assignments",
			Fields: []Field{
				employeeRef(),
				{Name: "destination", Type: TypeText, Required: true},
				{Name: "requested_on", Type: TypeDate, Required: true},
				{Name: "start_date", Type: TypeDate, Required: true},
				{Name: "end_date", Type: TypeDate, Required: true},
				{Name: "purpose", Type: TypeText, Required: true},
				{Name: "status", Type: TypeEnum, Enum: requestStatuses, Default: "Solicitado"},
			},
			OwnerField: "employee_id",
			OrderBy:    "requested_on",
			OrderDesc:  true,
		},
		{
			Kind:  resource.Documents,
			Table: "documents",
			Fields: []Field{
				employeeRef(),
				{Name: "document_type", Type: TypeText, Required: true},
				{Name: "document_name", Type: TypeText, Required: true},
				{Name: "storage_path", Type: TypeText, Required: true},
				{Name: "description", Type: TypeText},
			},
			OwnerField: "employee_id",
			OrderBy:    "id",
			OrderDesc:  true,
		},
	}
}

// DefaultRegistry は DefaultSchemas から Registry を構築します。
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultSchemas()...)
	if err != nil {
		panic(err)
	}
	return r
}
