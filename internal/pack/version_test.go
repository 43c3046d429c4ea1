package pack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testTime() time.Time {
	return time.Date(2024, time.March, 15, 13, 37, 42, 0, time.Local)
}

func TestPackTime_BitLayout(t *testing.T) {
	v := PackTime(testTime())

	assert.Equal(t, uint32(37/4), v&0xF)
	assert.Equal(t, uint32(13), (v>>4)&0x1F)
	assert.Equal(t, uint32(15), (v>>9)&0x1F)
	assert.Equal(t, uint32(3), (v>>14)&0xF)
	assert.Equal(t, uint32(2024-2010), v>>18)
}

func TestUnpackTime_FourMinuteResolution(t *testing.T) {
	got := UnpackTime(PackTime(testTime()))

	want := time.Date(2024, time.March, 15, 13, 36, 0, 0, time.Local)
	assert.True(t, want.Equal(got), "got %v, want %v", got, want)
}

func TestPackTime_ClampsEarlyYears(t *testing.T) {
	v := PackTime(time.Date(1999, time.December, 31, 23, 59, 0, 0, time.Local))
	assert.Equal(t, uint32(0), v>>18)
}

func TestIsPackedTime(t *testing.T) {
	assert.True(t, IsPackedTime(PackTime(testTime())))
	assert.True(t, IsPackedTime(PackTime(time.Date(2010, time.January, 1, 0, 0, 0, 0, time.Local))))
	assert.False(t, IsPackedTime(0))
	assert.False(t, IsPackedTime(7))
	assert.False(t, IsPackedTime(VersionFromModTime))
}
