package records

import "github.com/ogurasousui/personnel-core/internal/core/fault"

var (
	// ErrRecordNotFound は指定 ID の行が存在しない場合に返却されます。
	ErrRecordNotFound = fault.New(fault.NotFound, "record not found")
	// ErrUnknownKind は未登録の種別が指定された場合に返却されます。
	ErrUnknownKind = fault.New(fault.NotFound, "unknown record kind")
	// ErrEmptyUpdate は更新フィールドが無い場合に返却されます。
	ErrEmptyUpdate = fault.New(fault.BadRequest, "no fields to update")
	// ErrInvalidPageSize はページサイズが上限を超えた場合に返却されます。
	ErrInvalidPageSize = fault.New(fault.BadRequest, "invalid page size")
	// ErrInvalidOffset はオフセットが負の場合に返却されます。
	ErrInvalidOffset = fault.New(fault.BadRequest, "invalid offset")
	// ErrNotOwned は所有者を持たない種別に所有者フィルタが指定された場合に返却されます。
	ErrNotOwned = fault.New(fault.BadRequest, "record kind has no owner")
	// ErrOwnerMismatch は職員が他の従業員を所有者に指定した場合に返却されます。
	ErrOwnerMismatch = fault.New(fault.Forbidden, "cannot assign a record to another employee")
)
