package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFees_ClientPayer(t *testing.T) {
	fb, err := ComputeFees(1000, 5, 0, 0, "client")
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, fb.BaseAmount)
	assert.Equal(t, 50.0, fb.ClientFee)
	assert.Equal(t, 0.0, fb.FreelancerFee)
	assert.Equal(t, 1050.0, fb.TotalToPay)
	assert.Equal(t, 1000.0, fb.TotalToReceive)
	assert.Equal(t, 50.0, fb.PlatformRevenue)
}

func TestComputeFees_FreelancerPayer(t *testing.T) {
	fb, err := ComputeFees(1000, 5, 0, 0, "freelancer")
	assert.NoError(t, err)
	assert.Equal(t, 0.0, fb.ClientFee)
	assert.Equal(t, 50.0, fb.FreelancerFee)
	assert.Equal(t, 1000.0, fb.TotalToPay)
	assert.Equal(t, 950.0, fb.TotalToReceive)
	assert.Equal(t, 50.0, fb.PlatformRevenue)
}

func TestComputeFees_MaxCap(t *testing.T) {
	// Комиссия 5% от 100000 упирается в потолок 5000.
	fb, err := ComputeFees(100000, 5, 0, 5000, "client")
	assert.NoError(t, err)
	assert.Equal(t, 5000.0, fb.ClientFee)
	assert.Equal(t, 105000.0, fb.TotalToPay)
	assert.Equal(t, 100000.0, fb.TotalToReceive)
	assert.Equal(t, 5000.0, fb.PlatformRevenue)
}

func TestComputeFees_MinFloor(t *testing.T) {
	fb, err := ComputeFees(100, 1, 5, 0, "client")
	assert.NoError(t, err)
	assert.Equal(t, 5.0, fb.ClientFee)
	assert.Equal(t, 105.0, fb.TotalToPay)
}

func TestComputeFees_ZeroCapMeansNoCap(t *testing.T) {
	fb, err := ComputeFees(100000, 5, 0, 0, "client")
	assert.NoError(t, err)
	assert.Equal(t, 5000.0, fb.ClientFee)
}

func TestComputeFees_FeeNeverExceedsAmount(t *testing.T) {
	// Минимальная комиссия больше суммы сделки: комиссия ограничивается суммой.
	fb, err := ComputeFees(3, 5, 100, 0, "client")
	assert.NoError(t, err)
	assert.Equal(t, 3.0, fb.ClientFee)
}

func TestComputeFees_SplitRounding(t *testing.T) {
	// Нечётная копейка при делении пополам уходит клиентской части.
	fb, err := ComputeFees(1, 5, 0, 0, "split")
	assert.NoError(t, err)
	assert.Equal(t, 0.02, fb.FreelancerFee)
	assert.Equal(t, 0.03, fb.ClientFee)
	assert.Equal(t, 0.05, fb.PlatformRevenue)
	assert.Equal(t, 1.03, fb.TotalToPay)
	assert.Equal(t, 0.98, fb.TotalToReceive)
}

func TestComputeFees_SplitEven(t *testing.T) {
	fb, err := ComputeFees(1000, 10, 0, 0, "split")
	assert.NoError(t, err)
	assert.Equal(t, 50.0, fb.ClientFee)
	assert.Equal(t, 50.0, fb.FreelancerFee)
}

func TestComputeFees_Deterministic(t *testing.T) {
	first, err := ComputeFees(12345.67, 7.5, 10, 2000, "split")
	assert.NoError(t, err)
	second, err := ComputeFees(12345.67, 7.5, 10, 2000, "split")
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeFees_InvalidInput(t *testing.T) {
	_, err := ComputeFees(0, 5, 0, 0, "client")
	assert.Error(t, err)

	_, err = ComputeFees(-100, 5, 0, 0, "client")
	assert.Error(t, err)

	_, err = ComputeFees(100, -1, 0, 0, "client")
	assert.Error(t, err)

	_, err = ComputeFees(100, 5, 0, 0, "platform")
	assert.Error(t, err)
}
