package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	for name, tc := range map[string]struct {
		err  error
		kind error
	}{
		"plain":        {errors.New("boom"), nil},
		"nil":          {nil, nil},
		"wrapped key":  {fmt.Errorf("%w: kimi_k2", ErrConfigKey), ErrConfigKey},
		"user error":   {Wrap(fmt.Errorf("%w: bad url", ErrTransportInit), "Could not build client."), ErrTransportInit},
		"double wrap":  {fmt.Errorf("run: %w", Wrap(ErrConfigNotFound, "missing")), ErrConfigNotFound},
		"request fail": {fmt.Errorf("%w: qwen3_coder: %w", ErrRequestFailure, errors.New("EOF")), ErrRequestFailure},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.kind, Kind(tc.err))
		})
	}
}

func TestError(t *testing.T) {
	t.Run("message comes from the wrapped error", func(t *testing.T) {
		err := Wrap(errors.New("technical"), "Friendly.")
		require.Equal(t, "technical", err.Error())
		require.Equal(t, "Friendly.", err.ReasonText())
	})

	t.Run("falls back to reason", func(t *testing.T) {
		err := Error{Reason: "Only reason."}
		require.Equal(t, "Only reason.", err.Error())
		require.NoError(t, err.Unwrap())
	})

	t.Run("reason helper", func(t *testing.T) {
		require.Equal(t, "Friendly.", Reason(fmt.Errorf("ctx: %w", Wrapf(errors.New("x"), "%s.", "Friendly"))))
		require.Equal(t, "plain", Reason(errors.New("plain")))
		require.Empty(t, Reason(nil))
	})
}
