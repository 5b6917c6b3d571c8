package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecoverableError(t *testing.T) {
	err := NewRecoverableError(errors.New("test error"))
	assert.True(t, IsRecoverable(err))
	assert.False(t, IsRecoverable(errors.New("test error")))
	assert.False(t, IsRecoverable(nil))
}

func TestNonRecoverableError(t *testing.T) {
	err := NewNonRecoverableError(errors.New("bad input"))
	assert.False(t, IsRecoverable(err))
}

func TestRecoverableByPattern(t *testing.T) {
	assert.True(t, IsRecoverable(errors.New("fatal: unable to access remote: Connection refused")))
	assert.True(t, IsRecoverable(errors.New("ssh: connect to host github.com port 22: Operation timed out")))
	assert.False(t, IsRecoverable(errors.New("fatal: not a git repository")))
}

func TestPolicyExhaustsAttempts(t *testing.T) {
	ctx := context.Background()
	count := 0
	p := Policy{MaxAttempts: 3, Delay: time.Millisecond}
	err := p.Do(ctx, func() error {
		count++
		return NewRecoverableError(errors.New("test error"))
	})
	assert.Error(t, err)
	assert.Equal(t, "test error", err.Error())
	assert.Equal(t, 3, count)
}

func TestPolicyStopsOnNonRecoverable(t *testing.T) {
	ctx := context.Background()
	count := 0
	p := Policy{MaxAttempts: 5, Delay: time.Millisecond}
	err := p.Do(ctx, func() error {
		count++
		return errors.New("corrupt archive")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, count)
}

func TestPolicySucceedsMidway(t *testing.T) {
	ctx := context.Background()
	count := 0
	p := Policy{MaxAttempts: 3, Delay: time.Millisecond}
	err := p.Do(ctx, func() error {
		count++
		if count < 2 {
			return NewRecoverableError(errors.New("flaky"))
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPolicyMinimumOneAttempt(t *testing.T) {
	ctx := context.Background()
	count := 0
	p := Policy{MaxAttempts: 0, Delay: time.Millisecond}
	err := p.Do(ctx, func() error {
		count++
		return NewRecoverableError(errors.New("test error"))
	})
	assert.Error(t, err)
	assert.Equal(t, 1, count)
}

func TestPolicyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	p := Policy{MaxAttempts: 10, Delay: time.Second}
	err := p.Do(ctx, func() error {
		count++
		cancel()
		return NewRecoverableError(errors.New("flaky"))
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, count)
}
