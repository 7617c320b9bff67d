package automation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	t.Run("recoverable", func(t *testing.T) {
		err := Recoverable("page did not settle", errors.New("timeout"))
		assert.True(t, IsRecoverable(err))
		assert.False(t, IsFatal(err))
		assert.Contains(t, err.Error(), "page did not settle")
	})

	t.Run("fatal", func(t *testing.T) {
		err := Fatal("credentials rejected", nil)
		assert.True(t, IsFatal(err))
		assert.False(t, IsRecoverable(err))
	})

	t.Run("wrapped errors keep their class", func(t *testing.T) {
		err := fmt.Errorf("publishing vinted: %w", Fatal("account blocked", nil))
		assert.True(t, IsFatal(err))

		err = fmt.Errorf("publishing vinted: %w", Recoverable("flaky network", nil))
		assert.True(t, IsRecoverable(err))
	})

	t.Run("bare deadline is recoverable", func(t *testing.T) {
		assert.True(t, IsRecoverable(context.DeadlineExceeded))
	})

	t.Run("unclassified errors are neither", func(t *testing.T) {
		err := errors.New("something odd")
		assert.False(t, IsRecoverable(err))
		assert.False(t, IsFatal(err))
	})

	t.Run("unwrap exposes the cause", func(t *testing.T) {
		cause := errors.New("net down")
		err := Recoverable("submit failed", cause)
		assert.ErrorIs(t, err, cause)
	})
}

func TestScriptedAdapter(t *testing.T) {
	a := NewScriptedAdapter("vinted",
		ScriptedOutcome{Err: Recoverable("flaky", nil)},
		ScriptedOutcome{URL: "https://example.test/items/42"},
	)

	sess, err := a.Authenticate(context.Background(), Credentials{Email: "e", Password: "p"}, nil)
	assert.NoError(t, err)

	_, err = sess.SubmitListing(context.Background(), Payload{Title: "x"})
	assert.True(t, IsRecoverable(err))

	res, err := sess.SubmitListing(context.Background(), Payload{Title: "x"})
	assert.NoError(t, err)
	assert.Equal(t, "https://example.test/items/42", res.URL)

	// script exhausted: the last outcome repeats
	res, err = sess.SubmitListing(context.Background(), Payload{Title: "x"})
	assert.NoError(t, err)
	assert.Equal(t, "https://example.test/items/42", res.URL)

	assert.Equal(t, 3, a.SubmitCalls())
	assert.Equal(t, 1, a.AuthCalls())
}
