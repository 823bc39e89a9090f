// Package errors はライブラリ全体のエラーハンドリングを提供します。
// scikit-learnの例外システムにインスパイアされた構造化エラー型を、
// cockroachdb/errorsのスタックトレース付きで提供します。
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Score` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("gboost: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("gboost: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("gboost: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ValidationError はハイパーパラメータの検証に失敗した場合のエラーです。
// 例えば、n_estimatorsに0以下の値を渡した場合など。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gboost: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// UnsupportedLossError はサポートされていない損失関数が指定された場合のエラーです。
// 学習ループに入る前にFitから同期的に返されます。
type UnsupportedLossError struct {
	Op   string
	Loss string
}

func (e *UnsupportedLossError) Error() string {
	return fmt.Sprintf("gboost: %s: unsupported loss function %q", e.Op, e.Loss)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnsupportedLossError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("loss", e.Loss).
		Str("type", "UnsupportedLossError")
}

// NewUnsupportedLossError は新しいUnsupportedLossErrorを作成し、スタックトレースを付与します。
func NewUnsupportedLossError(op, loss string) error {
	err := &UnsupportedLossError{Op: op, Loss: loss}
	return errors.WithStack(err)
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gboost: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("gboost: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
