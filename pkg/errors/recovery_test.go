package errors

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recovering(op string, body func() error) (err error) {
	defer Recover(&err, op)
	return body()
}

func TestRecover(t *testing.T) {
	tests := []struct {
		name    string
		body    func() error
		wantNil bool
		wantMsg string
	}{
		{name: "no panic", body: func() error { return nil }, wantNil: true},
		{name: "plain error", body: func() error { return io.EOF }, wantMsg: "EOF"},
		{name: "string panic", body: func() error { panic("index out of range") }, wantMsg: "panic in Train: index out of range"},
		{name: "error panic", body: func() error { panic(io.ErrUnexpectedEOF) }, wantMsg: "unexpected EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := recovering("Train", tt.body)
			if tt.wantNil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestRecoverCapturesStack(t *testing.T) {
	err := recovering("Train", func() error { panic(42) })

	var pe *PanicError
	require.True(t, As(err, &pe))
	assert.Equal(t, "Train", pe.Operation)
	assert.Equal(t, 42, pe.Value)
	assert.True(t, strings.Contains(string(pe.Stack), "recovering"), "stack names the panicking frame")
	assert.Nil(t, pe.Unwrap())
}

func TestRecoverKeepsErrorPanicMatchable(t *testing.T) {
	err := recovering("Train", func() error { panic(io.ErrUnexpectedEOF) })
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestRecoverWrapsExistingError(t *testing.T) {
	original := fmt.Errorf("original error")
	err := func() (err error) {
		defer Recover(&err, "Train")
		err = original
		panic("after error")
	}()

	assert.Contains(t, err.Error(), "panic in Train")
	assert.ErrorIs(t, err, original)
}
