// Package apperr 定义业务错误分类。Key 是 web/locales 中的翻译键，Args 为其参数，
// 处理器据此生成面向用户的提示，Err 保留底层原因用于日志。
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	Internal Kind = iota
	Unauthorized
	Forbidden
	NotFound
	Conflict
	InsufficientStock
	InvalidInput
	InvalidCredentials
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case InsufficientStock:
		return "insufficient_stock"
	case InvalidInput:
		return "invalid_input"
	case InvalidCredentials:
		return "invalid_credentials"
	default:
		return "internal"
	}
}

// Error 业务错误
type Error struct {
	Kind Kind
	Key  string
	Args []interface{}
	Err  error
}

// 只比较 Kind 的哨兵错误，配合 errors.Is 使用
var (
	ErrInternal           = &Error{Kind: Internal}
	ErrUnauthorized       = &Error{Kind: Unauthorized}
	ErrForbidden          = &Error{Kind: Forbidden}
	ErrNotFound           = &Error{Kind: NotFound}
	ErrConflict           = &Error{Kind: Conflict}
	ErrInsufficientStock  = &Error{Kind: InsufficientStock}
	ErrInvalidInput       = &Error{Kind: InvalidInput}
	ErrInvalidCredentials = &Error{Kind: InvalidCredentials}
)

func New(kind Kind, key string, args ...interface{}) *Error {
	return &Error{Kind: kind, Key: key, Args: args}
}

func Wrap(kind Kind, err error, key string, args ...interface{}) *Error {
	return &Error{Kind: kind, Key: key, Args: args, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Key != "" {
		b.WriteString(": ")
		b.WriteString(e.Key)
	}
	if len(e.Args) > 0 {
		b.WriteString(" ")
		b.WriteString(fmt.Sprint(e.Args...))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is 哨兵（无 Key 无 Err）只按 Kind 匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Key == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return e == t
}

// KindOf 返回错误链上第一个业务错误的分类，非业务错误视为 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// As 取出业务错误，非业务错误包装为 Internal
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(Internal, err, "error.generic")
}
