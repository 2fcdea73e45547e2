package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmgcore/dmgcore/dmg/addr"
)

func TestLogSink_capturesBytesOnTransferStart(t *testing.T) {
	s := NewLogSink(nil)

	s.Write(addr.SB, 'P')
	s.Write(addr.SC, 0x81) // start transfer, internal clock

	assert.Equal(t, []byte{'P'}, s.Captured)
}

func TestLogSink_completedTransferClearsStartBitAndReadsFF(t *testing.T) {
	fired := false
	s := NewLogSink(func() { fired = true })

	s.Write(addr.SB, 0x42)
	s.Write(addr.SC, 0x81)

	assert.False(t, s.Read(addr.SC)&0x80 != 0, "transfer-start bit clears on completion")
	assert.Equal(t, uint8(0xFF), s.Read(addr.SB), "no peer: SB shifts in all ones")
	assert.True(t, fired, "completion requests the serial interrupt")
}

func TestLogSink_externalClockNeverStartsATransfer(t *testing.T) {
	s := NewLogSink(nil)

	s.Write(addr.SB, 0x42)
	s.Write(addr.SC, 0x80) // bit 0 clear: waiting on an external clock

	assert.Empty(t, s.Captured)
	assert.Equal(t, uint8(0x42), s.Read(addr.SB))
}

func TestLogSink_fixedTimingCompletesAfterCountdown(t *testing.T) {
	s := NewLogSink(nil, WithFixedTiming())

	s.Write(addr.SB, 0x42)
	s.Write(addr.SC, 0x81)
	assert.NotEqual(t, uint8(0xFF), s.Read(addr.SB), "transfer still in flight")

	s.Tick(4096)
	assert.Equal(t, uint8(0xFF), s.Read(addr.SB))
}
