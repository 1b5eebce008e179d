package resource

// Kind は認可とレコードストアが共有するリソース種別です。
type Kind string

const (
	Accounts             Kind = "accounts"
	Employees            Kind = "employees"
	Positions            Kind = "positions"
	CertificateTemplates Kind = "certificate_templates"
	Reports              Kind = "reports"

	Contacts            Kind = "contacts"
	PositionHistory     Kind = "position_history"
	Biennia             Kind = "biennia"
	Studies             Kind = "studies"
	Trainings           Kind = "trainings"
	Evaluations         Kind = "evaluations"
	Annotations         Kind = "annotations"
	DisciplinaryCases   Kind = "disciplinary_cases"
	AdministrativeLeave Kind = "administrative_leave"
	CompensatoryLeave   Kind = "compensatory_leave"
	Assignments         Kind = "assignments"
	Documents           Kind = "documents"
)

// Dependents は従業員に従属する 12 種別です。削除順に意味はありません。
func Dependents() []Kind {
	return []Kind{
		Contacts,
		PositionHistory,
		Biennia,
		Studies,
		Trainings,
		Evaluations,
		Annotations,
		DisciplinaryCases,
		AdministrativeLeave,
		CompensatoryLeave,
		Assignments,
		Documents,
	}
}

// All はポリシー表に登録される全種別です。
func All() []Kind {
	return append([]Kind{Accounts, Employees, Positions, CertificateTemplates, Reports}, Dependents()...)
}

// Parse は文字列を既知の Kind に変換します。
func Parse(raw string) (Kind, bool) {
	for _, k := range All() {
		if string(k) == raw {
			return k, true
		}
	}
	return "", false
}
