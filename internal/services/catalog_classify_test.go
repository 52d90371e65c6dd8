package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyItemType(t *testing.T) {
	cases := []struct {
		description string
		want        string
	}{
		{"GARRAFEIRA METALICA", ItemTypeGarrafeira},
		{"Garrafeira vertical 8 caixas", ItemTypeGarrafeira},
		{"REFRIGERADOR VERTICAL 410L", ItemTypeRefrigerador},
		{"Cervejeira Metalfrio", ItemTypeRefrigerador},
		{"FRIGOBAR 80L", ItemTypeRefrigerador},
		{"CAIXA PLASTICA 600ML", ItemTypeVasilhameCaixa},
		{"ENGRADADO RETORNAVEL", ItemTypeVasilhameCaixa},
		{"GARRAFA RETORNAVEL 600ML", ItemTypeVasilhameGarrafa},
		{"GFA 300ML", ItemTypeVasilhameGarrafa},
		{"MESA PLASTICA", ItemTypeOutro},
		{"", ItemTypeOutro},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyItemType(tc.description), "descrição %q", tc.description)
	}
}

func TestDetectVolumeKey(t *testing.T) {
	assert.Equal(t, "300ml", DetectVolumeKey("GARRAFA 300 ML RETORNAVEL"))
	assert.Equal(t, "600ml", DetectVolumeKey("caixa 600ml"))
	assert.Equal(t, "1l", DetectVolumeKey("GARRAFA 1 LITRO"))
	assert.Equal(t, "1l", DetectVolumeKey("CAIXA 1000 L RETORNAVEL"))
	assert.Equal(t, "", DetectVolumeKey("REFRIGERADOR VERTICAL"))
}

func TestBottlesForCrates(t *testing.T) {
	bottles, ok := BottlesForCrates("300ml", 2)
	assert.True(t, ok)
	assert.Equal(t, 48, bottles)

	bottles, ok = BottlesForCrates("1l", 3)
	assert.True(t, ok)
	assert.Equal(t, 36, bottles)

	_, ok = BottlesForCrates("2l", 1)
	assert.False(t, ok)

	bottles, ok = BottlesForCrates("2l", 0)
	assert.True(t, ok)
	assert.Zero(t, bottles)
}

func TestMaterialTypeBucket(t *testing.T) {
	assert.Equal(t, ItemTypeGarrafeira, MaterialTypeBucket("vasilhame caixa"))
	assert.Equal(t, ItemTypeGarrafeira, MaterialTypeBucket("Garrafeira"))
	assert.Equal(t, ItemTypeRefrigerador, MaterialTypeBucket("geladeiras"))
	assert.Equal(t, ItemTypeCaixaTermica, MaterialTypeBucket("caixa térmica"))
	assert.Equal(t, ItemTypeOutro, MaterialTypeBucket("chopeira"))
	assert.Equal(t, ItemTypeOutro, MaterialTypeBucket("qualquer coisa"))
}

func TestNormalizeMaterialType(t *testing.T) {
	bucket, err := NormalizeMaterialType("jogos de mesa")
	assert.NoError(t, err)
	assert.Equal(t, ItemTypeJogoMesa, bucket)

	_, err = NormalizeMaterialType("teletransporte")
	assert.Error(t, err)
}
