package account

import "context"

// Repository はアカウント参照の抽象です。
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Account, error)
	// FindByIdentifier は外部 ID またはメールアドレスで検索します。
	FindByIdentifier(ctx context.Context, identifier string) (*Account, error)
	// EmployeeIDForAccount はアカウントに紐づく職員 ID を返します。
	// 紐づきがない場合は ErrNoEmployee を返します。
	EmployeeIDForAccount(ctx context.Context, accountID int64) (int64, error)
}
