package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	assert.Equal(t, "0", Number(0))
	assert.Equal(t, "999", Number(999))
	assert.Equal(t, "1,000", Number(1000))
	assert.Equal(t, "1,234,567", Number(1234567))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "0s", Duration(500*time.Millisecond))
	assert.Equal(t, "5.2s", Duration(5200*time.Millisecond))
	assert.Equal(t, "3m5.0s", Duration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h15m", Duration(2*time.Hour+15*time.Minute))
}

func TestRate(t *testing.T) {
	assert.Equal(t, "123.45", Rate(123.45))
	assert.Equal(t, "12.34K", Rate(12340))
	assert.Equal(t, "1.50M", Rate(1500000))
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "0 B", Bytes(0))
	assert.Equal(t, "1023 B", Bytes(1023))
	assert.Equal(t, "1.50 KiB", Bytes(1536))
	assert.Equal(t, "1.00 MiB", Bytes(1<<20))
	assert.Equal(t, "2.00 GiB", Bytes(2<<30))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "25.0%", Percent(0.25))
	assert.Equal(t, "0.0%", Percent(0))
}
