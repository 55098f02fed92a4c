package actuator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/registry"
	"github.com/Nexlock/nexlock-module/internal/serialport"
)

func newTestLink(t *testing.T, ackTimeout time.Duration) (*Link, *serialport.TestablePort, *registry.Registry) {
	t.Helper()
	port := serialport.NewTestablePort()
	reg, err := registry.New([]string{"A", "B"})
	require.NoError(t, err)
	link := NewLink(port, reg, LinkConfig{
		AckTimeout:   ackTimeout,
		OfflineAfter: 10 * time.Second,
	}, zap.NewNop())
	return link, port, reg
}

func TestUnlockSendsFrameAndAcceptsAck(t *testing.T) {
	link, port, _ := newTestLink(t, time.Second)

	port.AddReadData([]byte{CmdUnlock, '1', RespAck})

	require.NoError(t, link.Unlock(1))
	assert.Equal(t, []byte{CmdUnlock, '1'}, port.WrittenData())
	assert.True(t, link.Online())
}

func TestLockAckTimeoutBoundedAndStateUnchanged(t *testing.T) {
	ackTimeout := 100 * time.Millisecond
	link, _, reg := newTestLink(t, ackTimeout)

	start := time.Now()
	err := link.Lock(2)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrAckTimeout)
	// the wait must stay close to the configured bound
	assert.Less(t, elapsed, ackTimeout+100*time.Millisecond)

	e, lookupErr := reg.ByID("B")
	require.NoError(t, lookupErr)
	assert.Equal(t, registry.StateLocked, e.State, "timed-out command must not change state")
	assert.True(t, e.LastUpdate.IsZero())
}

func TestUnlockRejectsUnexpectedResponse(t *testing.T) {
	link, port, _ := newTestLink(t, time.Second)

	port.AddReadData([]byte{CmdUnlock, '1', RespError})

	err := link.Unlock(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestPollAppliesUnsolicitedStatusFrames(t *testing.T) {
	link, port, reg := newTestLink(t, time.Second)
	now := time.Now()

	port.AddReadData([]byte{CmdStatus, '1', RespUnlocked})
	port.AddReadData([]byte{CmdStatus, '2', RespLocked})
	link.Poll(now)

	a, _ := reg.ByID("A")
	b, _ := reg.ByID("B")
	assert.Equal(t, registry.StateUnlocked, a.State)
	assert.Equal(t, registry.StateLocked, b.State)
	assert.True(t, link.Online())
}

func TestPollHandlesPartialFrames(t *testing.T) {
	link, port, reg := newTestLink(t, time.Second)

	port.AddReadData([]byte{CmdStatus, '1'})
	link.Poll(time.Now())

	a, _ := reg.ByID("A")
	assert.Equal(t, registry.StateLocked, a.State, "partial frame must not be applied")

	port.AddReadData([]byte{RespUnlocked})
	link.Poll(time.Now())

	a, _ = reg.ByID("A")
	assert.Equal(t, registry.StateUnlocked, a.State)
}

func TestPollErrorResponseLeavesStateAlone(t *testing.T) {
	link, port, reg := newTestLink(t, time.Second)
	_ = reg.SetSlotState(1, registry.StateUnlocked, time.Now())

	port.AddReadData([]byte{CmdStatus, '1', RespError})
	link.Poll(time.Now())

	a, _ := reg.ByID("A")
	assert.Equal(t, registry.StateUnlocked, a.State, "error response must not clear last-known state")
}

func TestLinkGoesOfflineAfterSilence(t *testing.T) {
	link, port, _ := newTestLink(t, time.Second)
	now := time.Now()

	port.AddReadData([]byte{CmdStatus, '1', RespLocked})
	link.Poll(now)
	require.True(t, link.Online())

	link.Poll(now.Add(5 * time.Second))
	assert.True(t, link.Online())

	link.Poll(now.Add(11 * time.Second))
	assert.False(t, link.Online())
}

func TestSetOnlineAndRequestStatus(t *testing.T) {
	link, port, _ := newTestLink(t, time.Second)

	require.NoError(t, link.SetOnline(true))
	require.NoError(t, link.RequestStatus())
	require.NoError(t, link.SetOnline(false))

	assert.Equal(t, []byte{CmdOnline, '0', CmdStatus, '0', CmdOffline, '0'}, port.WrittenData())
}

func TestEncodeRequestRejectsWideSlots(t *testing.T) {
	if _, err := encodeRequest(CmdLock, 12); err == nil {
		t.Fatalf("expected error for slot 12")
	}
}

func TestDecodeFrame(t *testing.T) {
	frame, err := decodeFrame([]byte{CmdLock, '3', RespAck})
	require.NoError(t, err)
	assert.Equal(t, Frame{Command: CmdLock, Slot: 3, Response: RespAck}, frame)

	_, err = decodeFrame([]byte{CmdLock, 'x', RespAck})
	require.Error(t, err)
}

func TestServoActuator(t *testing.T) {
	servo := &fakeServo{}
	act := NewServoActuator(servo)

	require.NoError(t, act.Unlock(2))
	require.NoError(t, act.Lock(2))
	assert.Equal(t, []servoCall{{2, 90}, {2, 0}}, servo.calls)

	servo.err = errors.New("jammed")
	require.Error(t, act.Lock(1))
}

type servoCall struct {
	slot, position int
}

type fakeServo struct {
	calls []servoCall
	err   error
}

func (f *fakeServo) SetPosition(slot, position int) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, servoCall{slot, position})
	return nil
}
