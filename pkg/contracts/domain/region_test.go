package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeature_String(t *testing.T) {
	tests := []struct {
		feature  Feature
		expected string
	}{
		{FeatureSD, "SD"},
		{FeatureSMP, "SMP"},
		{FeatureSMA, "SMA"},
		{FeatureSMK, "SMK"},
		{Feature(9), "Feature(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.feature.String())
		})
	}
	assert.Equal(t, []string{"SD", "SMP", "SMA", "SMK"}, FeatureNames())
}

func TestRegionRecord(t *testing.T) {
	r := RegionRecord{Region: "Kab. Bogor", SD: 100, SMP: 10, SMA: 5, SMK: 2}
	assert.Equal(t, [FeatureCount]int64{100, 10, 5, 2}, r.Counts())
	assert.Equal(t, int64(117), r.Total())
	assert.NoError(t, r.Validate())

	r.SetCount(FeatureSMA, -1)
	assert.Error(t, r.Validate())

	assert.Error(t, RegionRecord{Region: "  "}.Validate())
}
