package drive_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/derive_ive_go/deriver"
	"github.com/on-the-ground/derive_ive_go/drive"
	"github.com/on-the-ground/derive_ive_go/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type account struct {
	Owner   string
	Balance int
}

type notice struct {
	key string
	msg string
}

func (n notice) PartitionKey() string { return n.key }

type inbox struct {
	mu   sync.Mutex
	msgs []string
}

func (i *inbox) handle(_ context.Context, n notice) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, n.msg)
}

func (i *inbox) all() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.msgs...)
}

func accountNode() deriver.Node[account, string, notice] {
	balance := deriver.Selecting(
		func(a account) int { return a.Balance },
		deriver.LeafWithEffect(func(b int) (string, notice) {
			return fmt.Sprintf("%d EUR", b), notice{key: "balance", msg: fmt.Sprintf("balance %d", b)}
		}),
	)
	owner := deriver.Selecting(
		func(a account) string { return a.Owner },
		deriver.EffectOnly(func(o string) notice {
			return notice{key: "owner", msg: "owner " + o}
		}),
	)
	return deriver.AddEffect(balance, owner)
}

func newRunner(t *testing.T, box *inbox) *runner.Runner[notice] {
	t.Helper()
	r, err := runner.New(context.Background(), runner.NewConfig(16, 1), box.handle,
		runner.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return r
}

func TestDriver_DispatchesSettledEffects(t *testing.T) {
	ctx := context.Background()
	box := &inbox{}
	r := newRunner(t, box)

	d, first, err := drive.New(ctx, account{Owner: "alice", Balance: 10}, accountNode(), r)
	require.NoError(t, err)
	assert.Equal(t, "10 EUR", first.Computed)
	assert.Equal(t, []notice{
		{key: "owner", msg: "owner alice"},
		{key: "balance", msg: "balance 10"},
	}, first.Effects)

	same, err := d.SetState(ctx, account{Owner: "alice", Balance: 10})
	require.NoError(t, err)
	assert.Empty(t, same.Effects)
	assert.Equal(t, "10 EUR", same.Computed)

	raised, err := d.SetState(ctx, account{Owner: "alice", Balance: 25})
	require.NoError(t, err)
	assert.Equal(t, "25 EUR", raised.Computed)
	assert.Equal(t, []notice{{key: "balance", msg: "balance 25"}}, raised.Effects)

	renamed, err := d.Update(ctx, func(a account) account {
		a.Owner = "bob"
		return a
	})
	require.NoError(t, err)
	assert.Equal(t, account{Owner: "bob", Balance: 25}, renamed.State)
	assert.Equal(t, []notice{{key: "owner", msg: "owner bob"}}, renamed.Effects)

	r.Close()

	assert.Equal(t, []string{"owner alice", "balance 10", "balance 25", "owner bob"}, box.all())
	assert.Equal(t, account{Owner: "bob", Balance: 25}, d.State())
	assert.Equal(t, "25 EUR", d.Computed())
}

func TestDriver_SettlementSpan(t *testing.T) {
	ctx := context.Background()
	box := &inbox{}
	r := newRunner(t, box)
	defer r.Close()

	slow := deriver.Leaf[int, int, notice](func(n int) int {
		time.Sleep(10 * time.Millisecond)
		return n * 2
	})
	d, _, err := drive.New(ctx, 1, slow, r)
	require.NoError(t, err)

	s, err := d.SetState(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Computed)
	assert.GreaterOrEqual(t, s.Span.Duration(), 10*time.Millisecond)
	assert.False(t, s.Span.End().Before(s.Span.Start()))
}

func TestDriver_ClosedRunnerStillSettles(t *testing.T) {
	ctx := context.Background()
	box := &inbox{}
	r := newRunner(t, box)

	d, _, err := drive.New(ctx, account{Owner: "alice", Balance: 1}, accountNode(), r)
	require.NoError(t, err)
	r.Close()

	s, err := d.SetState(ctx, account{Owner: "alice", Balance: 2})
	assert.ErrorIs(t, err, runner.ErrClosedRunner)
	assert.Equal(t, []notice{{key: "balance", msg: "balance 2"}}, s.Effects)
	assert.Equal(t, account{Owner: "alice", Balance: 2}, d.State())
	assert.Equal(t, "2 EUR", d.Computed())
}

func TestDriver_RunnerContextDone(t *testing.T) {
	ctx := context.Background()
	parent, cancel := context.WithCancel(context.Background())
	closed := make(chan struct{})
	box := &inbox{}

	r, err := runner.New(parent, runner.NewConfig(16, 1), box.handle,
		runner.WithTeardown(func() { close(closed) }))
	require.NoError(t, err)
	defer r.Close()

	d, _, err := drive.New(ctx, account{Owner: "alice", Balance: 1}, accountNode(), r)
	require.NoError(t, err)

	cancel()
	<-closed

	_, err = d.SetState(ctx, account{Owner: "alice", Balance: 2})
	assert.ErrorIs(t, err, runner.ErrClosedRunner)
	assert.Equal(t, []string{"owner alice", "balance 1"}, box.all())
}

func TestDriver_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	box := &inbox{}
	r := newRunner(t, box)

	d, _, err := drive.New(ctx, account{Owner: "alice"}, accountNode(), r)
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Update(ctx, func(a account) account {
				a.Balance++
				return a
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	r.Close()

	assert.Equal(t, n, d.State().Balance)

	msgs := box.all()
	require.Len(t, msgs, n+2)
	// Updates are serialized, so balances arrive strictly increasing.
	for i, msg := range msgs[2:] {
		assert.Equal(t, fmt.Sprintf("balance %d", i+1), msg)
	}
}

func TestDriver_Options(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	box := &inbox{}
	r := newRunner(t, box)
	defer r.Close()

	node := deriver.LeafWithEffect(func(s string) (int, notice) {
		return len(s), notice{key: runner.Unpartitioned, msg: s}
	}, deriver.WithCustomEquality[string](strings.EqualFold))

	d, _, err := drive.New(ctx, "abc", node, r,
		drive.WithLogger[string](zap.New(core)),
		drive.WithEquality(deriver.Equality[string](strings.EqualFold)),
	)
	require.NoError(t, err)

	s, err := d.SetState(ctx, "ABC")
	require.NoError(t, err)
	assert.Empty(t, s.Effects)
	assert.Equal(t, "abc", d.State())

	_, err = d.SetState(ctx, "abcd")
	require.NoError(t, err)

	settled := logs.FilterMessage("settled").All()
	require.Len(t, settled, 3)
	assert.Equal(t, int64(1), settled[2].ContextMap()["effects"])
}
