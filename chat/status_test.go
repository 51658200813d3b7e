package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingUpdater struct {
	calls []string
	err   error
}

func (u *recordingUpdater) UpdateStatus(ctx context.Context, inquiryID uint, status string) error {
	if u.err != nil {
		return u.err
	}
	u.calls = append(u.calls, status)
	return nil
}

func TestStatusAdvancesForward(t *testing.T) {
	updater := &recordingUpdater{}
	machine := NewStatusMachine(updater)
	ctx := context.Background()

	status, err := machine.Advance(ctx, 1, StatusNew, StatusRead)
	require.NoError(t, err)
	require.Equal(t, StatusRead, status)

	status, err = machine.Advance(ctx, 1, status, StatusReplied)
	require.NoError(t, err)
	require.Equal(t, StatusReplied, status)

	require.Equal(t, []string{StatusRead, StatusReplied}, updater.calls)
}

func TestStatusSkipsReadWhenReplyingDirectly(t *testing.T) {
	updater := &recordingUpdater{}
	machine := NewStatusMachine(updater)

	status, err := machine.Advance(context.Background(), 1, StatusNew, StatusReplied)
	require.NoError(t, err)
	require.Equal(t, StatusReplied, status)
}

func TestStatusNeverMovesBackward(t *testing.T) {
	updater := &recordingUpdater{}
	machine := NewStatusMachine(updater)
	ctx := context.Background()

	status, err := machine.Advance(ctx, 1, StatusReplied, StatusRead)
	require.NoError(t, err)
	require.Equal(t, StatusReplied, status)

	status, err = machine.Advance(ctx, 1, StatusRead, StatusNew)
	require.NoError(t, err)
	require.Equal(t, StatusRead, status)

	require.Empty(t, updater.calls, "no-op transitions must not write")
}

func TestStatusCloseIsNeverClobbered(t *testing.T) {
	updater := &recordingUpdater{}
	machine := NewStatusMachine(updater)
	ctx := context.Background()

	for _, target := range []string{StatusRead, StatusReplied} {
		status, err := machine.Advance(ctx, 1, StatusClosed, target)
		require.NoError(t, err)
		require.Equal(t, StatusClosed, status)
	}
	require.Empty(t, updater.calls)
}

func TestStatusUnknownValuesAreNoOps(t *testing.T) {
	updater := &recordingUpdater{}
	machine := NewStatusMachine(updater)

	// unknown current is treated as new; unknown target is ignored
	status, err := machine.Advance(context.Background(), 1, "garbage", "also-garbage")
	require.NoError(t, err)
	require.Equal(t, "garbage", status)
	require.Empty(t, updater.calls)
}

func TestStatusesBelow(t *testing.T) {
	require.ElementsMatch(t, []string{StatusNew}, StatusesBelow(StatusRead))
	require.ElementsMatch(t, []string{StatusNew, StatusRead}, StatusesBelow(StatusReplied))
	require.ElementsMatch(t, []string{StatusNew, StatusRead, StatusReplied}, StatusesBelow(StatusClosed))
	require.Empty(t, StatusesBelow(StatusNew))
	require.Empty(t, StatusesBelow("garbage"))
}

func TestStatusUpdaterFailureKeepsCurrent(t *testing.T) {
	boom := errors.New("db down")
	machine := NewStatusMachine(&recordingUpdater{err: boom})

	status, err := machine.Advance(context.Background(), 1, StatusNew, StatusRead)
	require.ErrorIs(t, err, boom)
	require.Equal(t, StatusNew, status)
}
