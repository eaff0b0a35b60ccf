package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestComputeIMC(t *testing.T) {
	v, ok := ComputeIMC(70, 175)
	require.True(t, ok)
	require.Equal(t, 22.86, v)

	v, ok = ComputeIMC(70, 1.75)
	require.True(t, ok)
	require.Equal(t, 22.86, v)

	_, ok = ComputeIMC(70, 0)
	require.False(t, ok)
	_, ok = ComputeIMC(-1, 170)
	require.False(t, ok)
}

func TestFillIMC(t *testing.T) {
	m := Medidas{Peso: ptr(80), Talla: ptr(180)}
	m.FillIMC()
	require.NotNil(t, m.IMC)
	require.Equal(t, 24.69, *m.IMC)

	// 已有 IMC 不覆寫
	m = Medidas{Peso: ptr(80), Talla: ptr(180), IMC: ptr(1)}
	m.FillIMC()
	require.Equal(t, 1.0, *m.IMC)

	m = Medidas{Peso: ptr(80)}
	m.FillIMC()
	require.Nil(t, m.IMC)
}

func TestMedidasColumnsAligned(t *testing.T) {
	var m Medidas
	require.Len(t, m.Fields(), len(MedidasColumns))
	require.Len(t, m.Targets(), len(MedidasColumns))

	*m.Targets()[1] = ptr(170)
	require.Equal(t, 170.0, *m.Talla)
	require.Equal(t, "talla", MedidasColumns[1])
}

func TestRoles(t *testing.T) {
	require.True(t, ValidRole(RoleAdmin))
	require.False(t, ValidRole("root"))
	require.True(t, User{Role: RoleNutricionista}.IsStaff())
	require.False(t, User{Role: RoleCliente}.IsStaff())
	require.True(t, Planteles.Valid())
	require.False(t, CatalogKind("users").Valid())
}
