//go:build !cgo
// +build !cgo

package entity

import (
	"context"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
)

// ONNX stub type when built without CGO (see onnx.go for real implementation).
type ONNX struct{}

// NewONNX returns an unavailable error when built without CGO.
func NewONNX(config.EntityConfig) (*ONNX, error) {
	return nil, models.NewUnavailableError("entities", "ONNX backend requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

func (*ONNX) Extract(context.Context, string) ([]models.Entity, error) {
	return nil, models.NewUnavailableError("entities", "ONNX backend requires CGO")
}

func (*ONNX) MaxInputLength() int { return 0 }

func (*ONNX) Available() error {
	return models.NewUnavailableError("entities", "ONNX backend requires CGO")
}

func (*ONNX) Name() string { return "onnx" }

func (*ONNX) Close() error { return nil }
