package records

import "context"

// Query は一覧取得の条件です。OwnerID が nil なら全件です。
type Query struct {
	OwnerID *int64
	Limit   int
	Offset  int
}

// Repository はスキーマ駆動のレコード永続化を行うインターフェースです。
// 存在しない行は ErrRecordNotFound を返します。
type Repository interface {
	List(ctx context.Context, schema Schema, q Query) ([]Record, error)
	Get(ctx context.Context, schema Schema, id int64) (Record, error)
	// Owner は行の所有従業員 ID を返します。所有者を持たない種別では nil です。
	Owner(ctx context.Context, schema Schema, id int64) (*int64, error)
	Insert(ctx context.Context, schema Schema, values []Assignment) (int64, error)
	Update(ctx context.Context, schema Schema, id int64, values []Assignment) error
	Delete(ctx context.Context, schema Schema, id int64) error
	// ClearExclusive は同一所有者の keepID 以外の行の排他フラグを false にします。
	ClearExclusive(ctx context.Context, schema Schema, ownerID, keepID int64) error
}
