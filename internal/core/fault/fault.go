package fault

import (
	"errors"
	"fmt"
)

// Kind はコア全体で共有するエラー種別です。
type Kind int

const (
	// Internal は想定外のストア障害などを表します。ゼロ値です。
	Internal Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	BadRequest
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case BadRequest:
		return "bad_request"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error は種別付きのエラーです。Err に原因を保持します。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New は種別とメッセージから Error を生成します。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf は書式付きメッセージで Error を生成します。
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap は原因エラーに種別を付与します。err が nil の場合は nil を返します。
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf はエラーチェーン上の最初の Error の種別を返します。
// 種別を持たないエラーは Internal とみなします。
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Internal
}

// Is は err が指定種別であるかを判定します。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage は信頼できない呼び出し元へ返してよいメッセージを返します。
// Internal の詳細は隠蔽します。
func PublicMessage(err error) string {
	var fe *Error
	if !errors.As(err, &fe) || fe.Kind == Internal {
		return "internal error"
	}
	if fe.Message != "" {
		return fe.Message
	}
	return fe.Error()
}
