// Copyright 2019 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/newsdesk/newsdesk/pkg/private/serrors"
)

type testErrType struct {
	msg string
}

func (e *testErrType) Error() string {
	return e.msg
}

type testToTempErr struct {
	msg       string
	timeout   bool
	temporary bool
	cause     error
}

func (e *testToTempErr) Error() string   { return e.msg }
func (e *testToTempErr) Timeout() bool   { return e.timeout }
func (e *testToTempErr) Temporary() bool { return e.temporary }
func (e *testToTempErr) Unwrap() error   { return e.cause }

func TestIsTimeout(t *testing.T) {
	err := serrors.New("no timeout")
	assert.False(t, serrors.IsTimeout(err))
	wrappedErr := serrors.Wrap("timeout", &testToTempErr{msg: "to", timeout: true})
	assert.True(t, serrors.IsTimeout(wrappedErr))
	noTimeoutWrappingTimeout := serrors.Wrap("notimeout", &testToTempErr{
		msg:     "non timeout wraps timeout",
		timeout: false,
		cause:   &testToTempErr{msg: "timeout", timeout: true},
	})
	assert.False(t, serrors.IsTimeout(noTimeoutWrappingTimeout))
}

func TestIsTemporary(t *testing.T) {
	err := serrors.New("not temp")
	assert.False(t, serrors.IsTemporary(err))
	wrappedErr := serrors.Wrap("temp", &testToTempErr{msg: "to", temporary: true})
	assert.True(t, serrors.IsTemporary(wrappedErr))
}

func TestWrapNoStack(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		err := serrors.New("simple err")
		errWithCtx := serrors.WrapNoStack("error", err, "someCtx", "someValue")
		assert.ErrorIs(t, errWithCtx, err)
		assert.ErrorIs(t, errWithCtx, errWithCtx)
	})
	t.Run("As", func(t *testing.T) {
		err := &testErrType{msg: "test err"}
		errWithCtx := serrors.WrapNoStack("error", err, "someCtx", "someVal")
		var errAs *testErrType
		require.True(t, errors.As(errWithCtx, &errAs))
		assert.Equal(t, err, errAs)
	})
}

func TestJoin(t *testing.T) {
	base := errors.New("base")
	cause := serrors.New("cause")
	err := serrors.JoinNoStack(base, cause, "endpoint", "https://push.example/1")
	assert.ErrorIs(t, err, base)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, serrors.Join(nil, nil))
}

func TestFormat(t *testing.T) {
	testCases := map[string]struct {
		Err      error
		Expected string
	}{
		"plain": {
			Err:      serrors.New("plain"),
			Expected: "plain",
		},
		"sorted context": {
			Err:      serrors.New("ctx", "z", 1, "a", "b"),
			Expected: "ctx {a=b; z=1}",
		},
		"wrapped": {
			Err:      serrors.Wrap("outer", errors.New("inner"), "k", "v"),
			Expected: "outer {k=v}: inner",
		},
		"joined": {
			Err:      serrors.JoinNoStack(errors.New("sentinel"), nil, "detailMsg", "test"),
			Expected: "sentinel {detailMsg=test}",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, tc.Err.Error())
		})
	}
}

func TestStackTrace(t *testing.T) {
	err := serrors.New("with stack")
	var st interface{ StackTrace() serrors.StackTrace }
	require.True(t, errors.As(err, &st))
	assert.NotEmpty(t, st.StackTrace())

	noStack := serrors.WrapNoStack("without", errors.New("x"))
	require.True(t, errors.As(noStack, &st))
	assert.Empty(t, st.StackTrace())
}

func TestList(t *testing.T) {
	var l serrors.List
	assert.NoError(t, l.ToError())
	l = append(l, errors.New("a"), serrors.New("b"))
	assert.Equal(t, "[ a; b ]", l.ToError().Error())
	var _ zapcore.ArrayMarshaler = l
}
