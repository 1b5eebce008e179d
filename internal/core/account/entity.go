package account

import "time"

// Role はアカウントの権限区分です。値は永続化される文字列です。
type Role string

const (
	// RolePrivileged は全レコードへ無制限にアクセスできる管理者です。
	RolePrivileged Role = "Administrador"
	// RoleStandard は自身の職員レコードのみ扱える一般職員です。
	RoleStandard Role = "Funcionario"
)

// Valid は既知のロールかを判定します。
func (r Role) Valid() bool {
	return r == RolePrivileged || r == RoleStandard
}

// Account は認証主体となるアカウントです。
type Account struct {
	ID           int64
	ExternalID   string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
}
