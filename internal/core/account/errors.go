package account

import "github.com/ogurasousui/personnel-core/internal/core/fault"

var (
	// ErrAccountNotFound はアカウントが存在しない場合に返却されます。
	ErrAccountNotFound = fault.New(fault.NotFound, "account not found")
	// ErrNoEmployee はアカウントに職員レコードが紐づいていない場合に返却されます。
	ErrNoEmployee = fault.New(fault.NotFound, "no employee record for this account")
	// ErrInactive は無効化されたアカウントの場合に返却されます。
	ErrInactive = fault.New(fault.Forbidden, "account is inactive")
)
