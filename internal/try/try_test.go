// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package try

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecover(t *testing.T) {
	t.Run("will update the error ref value", func(t *testing.T) {
		t.Run("if a non-error value is recovered and the ref is nil", func(t *testing.T) {
			f := func() (err error) {
				defer Recover(&err)
				panic("boom")
			}

			err := f()

			var perr PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "boom", perr.Value) {
				return
			}
			if !assert.NotEmpty(t, perr.Stack) {
				return
			}
			assert.Nil(t, perr.Unwrap())
		})

		t.Run("if an error value is recovered and the ref is already set", func(t *testing.T) {
			funcErr := errors.New("func error")
			panicErr := errors.New("panic error")
			f := func() (err error) {
				defer Recover(&err)
				err = funcErr
				panic(panicErr)
			}

			err := f()

			if !assert.ErrorIs(t, err, funcErr) {
				return
			}
			assert.ErrorIs(t, err, panicErr)
		})
	})

	t.Run("will not update the error ref value", func(t *testing.T) {
		t.Run("if no panic occurs", func(t *testing.T) {
			f := func() (err error) {
				defer Recover(&err)
				return nil
			}

			assert.Nil(t, f())
		})
	})
}

type closeFunc func() error

func (f closeFunc) Close() error {
	return f()
}

func TestClose(t *testing.T) {
	t.Run("will join the close error", func(t *testing.T) {
		t.Run("if the ref already holds an error", func(t *testing.T) {
			first := errors.New("first")
			closeErr := errors.New("close")

			err := first
			Close(&err, closeFunc(func() error { return closeErr }))

			if !assert.ErrorIs(t, err, first) {
				return
			}
			assert.ErrorIs(t, err, closeErr)
		})
	})

	t.Run("will leave the ref untouched", func(t *testing.T) {
		t.Run("if the value is not an io.Closer", func(t *testing.T) {
			var err error
			Close(&err, struct{}{})
			assert.Nil(t, err)
		})

		t.Run("if close succeeds", func(t *testing.T) {
			var err error
			Close(&err, closeFunc(func() error { return nil }))
			assert.Nil(t, err)
		})
	})
}
