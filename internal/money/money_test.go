package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmetic(t *testing.T) {
	t.Run("add_and_sub_are_exact", func(t *testing.T) {
		a := MustParse("0.10")
		b := MustParse("0.20")
		assert.True(t, a.Add(b).Equal(MustParse("0.30")))
		assert.True(t, MustParse("1000.00").Sub(MustParse("300.00")).Equal(MustParse("700")))
	})

	t.Run("neg_and_sign", func(t *testing.T) {
		m := MustParse("12.34").Neg()
		assert.True(t, m.IsNegative())
		assert.False(t, m.IsPositive())
		assert.True(t, Zero.IsZero())
	})

	t.Run("compare", func(t *testing.T) {
		assert.True(t, MustParse("500").GreaterThanOrEqual(MustParse("500.00")))
		assert.True(t, MustParse("499.99").LessThan(MustParse("500")))
		assert.Equal(t, 0, MustParse("500.00").Cmp(MustParse("500")))
	})

	t.Run("sum", func(t *testing.T) {
		assert.Equal(t, "80.00", Sum(MustParse("50"), MustParse("30")).String())
		assert.Equal(t, "0.00", Sum().String())
	})

	t.Run("mul_percent", func(t *testing.T) {
		assert.Equal(t, "160.00", MustParse("200").MulPercent(NewPercent(80)).String())
		assert.Equal(t, "0.01", MustParse("0.05").MulPercent(NewPercent(25)).String())
	})
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name  string
		part  string
		whole string
		want  string
	}{
		{"budget_scenario", "80.00", "200.00", "40.00"},
		{"zero_whole", "50.00", "0", "0.00"},
		{"rounds_half_up", "1", "8", "12.50"},
		{"repeating_fraction", "1", "3", "33.33"},
		{"half_up_at_third_digit", "2", "3", "66.67"},
		{"over_budget", "300", "200", "150.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentOf(MustParse(tt.part), MustParse(tt.whole))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestScale(t *testing.T) {
	assert.True(t, MustParse("10.25").HasValidScale())
	assert.True(t, MustParse("10").HasValidScale())
	assert.False(t, MustParse("10.255").HasValidScale())
}

func TestJSON(t *testing.T) {
	t.Run("marshals_as_number", func(t *testing.T) {
		out, err := json.Marshal(struct {
			Amount Money `json:"amount"`
		}{MustParse("700")})
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":700.00}`, string(out))
	})

	t.Run("unmarshals_number_and_string", func(t *testing.T) {
		var v struct {
			A Money `json:"a"`
			B Money `json:"b"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"a":12.5,"b":"3.10"}`), &v))
		assert.Equal(t, "12.50", v.A.String())
		assert.Equal(t, "3.10", v.B.String())
	})

	t.Run("rejects_garbage", func(t *testing.T) {
		var m Money
		assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
	})
}

func TestScanValue(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(float64(0.30000000000000004)))
	assert.Equal(t, "0.30", m.String())

	require.NoError(t, m.Scan([]byte("1100.00")))
	assert.True(t, m.Equal(MustParse("1100")))

	require.NoError(t, m.Scan(int64(7)))
	assert.Equal(t, "7.00", m.String())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	v, err := MustParse("42.1").Value()
	require.NoError(t, err)
	assert.Equal(t, "42.10", v)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$1,000.00", MustParse("1000").Format("USD"))
	assert.Equal(t, "¥1,235", MustParse("1234.56").Format("JPY"))
	assert.Equal(t, "5.00 XXX1", MustParse("5").Format("XXX1"))
	assert.True(t, IsCurrency("EUR"))
	assert.False(t, IsCurrency("ABC1"))
	assert.False(t, IsCurrency(""))
}

func TestParse(t *testing.T) {
	m, err := Parse("3.14")
	require.NoError(t, err)
	assert.Equal(t, "3.14", m.String())
	_, err = Parse("x")
	assert.Error(t, err)
}
