package pipeline

import (
	"testing"

	apperrors "nucleus-counter/internal/errors"
)

func TestDefaultParamsAreValid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params failed validation: %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"valid defaults", func(p *Params) {}, false},
		{"kernel size one", func(p *Params) { p.BlurKernelSize = 1 }, false},
		{"even kernel", func(p *Params) { p.BlurKernelSize = 4 }, true},
		{"zero kernel", func(p *Params) { p.BlurKernelSize = 0 }, true},
		{"negative kernel", func(p *Params) { p.BlurKernelSize = -3 }, true},
		{"negative sigma", func(p *Params) { p.BlurSigma = -1 }, true},
		{"threshold too high", func(p *Params) { p.ThresholdValue = 256 }, true},
		{"threshold negative", func(p *Params) { p.ThresholdValue = -1 }, true},
		{"threshold boundaries", func(p *Params) { p.ThresholdValue = 0 }, false},
		{"unknown mode", func(p *Params) { p.ThresholdMode = "otsu" }, true},
		{"adaptive valid", func(p *Params) {
			p.ThresholdMode = ThresholdModeAdaptiveMean
			p.AdaptiveBlockSize = 11
		}, false},
		{"adaptive even block", func(p *Params) {
			p.ThresholdMode = ThresholdModeAdaptiveGaussian
			p.AdaptiveBlockSize = 8
		}, true},
		{"adaptive block too small", func(p *Params) {
			p.ThresholdMode = ThresholdModeAdaptiveMean
			p.AdaptiveBlockSize = 1
		}, true},
		{"negative min area", func(p *Params) { p.MinBlobArea = -0.5 }, true},
		{"adaptive ignores global threshold range", func(p *Params) {
			p.ThresholdMode = ThresholdModeAdaptiveMean
			p.ThresholdValue = 999
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParams()
			tc.mutate(&params)

			err := params.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if !apperrors.IsKind(err, apperrors.KindInvalidParameter) {
					t.Fatalf("expected invalid_parameter kind, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestParamsValidateForImageSize(t *testing.T) {
	params := DefaultParams()
	params.BlurKernelSize = 9

	if err := params.validateFor(20, 20); err != nil {
		t.Fatalf("kernel within dimensions should pass: %v", err)
	}
	if err := params.validateFor(7, 20); err == nil {
		t.Fatal("kernel taller than image should fail")
	}
	if err := params.validateFor(20, 7); err == nil {
		t.Fatal("kernel wider than image should fail")
	}
}
