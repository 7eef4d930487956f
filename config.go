// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package concatfix

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sassoftware/viya-pdf-concatfix/logger"
)

type VerifyMode string

const (
	VerifyOff        VerifyMode = "off"
	VerifyStrict     VerifyMode = "strict"
	VerifyBestEffort VerifyMode = "best-effort"
)

type Config struct {
	MaxConcurrentPDFs int           `validate:"min=1,max=64"`
	WorkerTimeout     time.Duration `validate:"required"`
	PatchMode         PatchMode     `validate:"oneof=range content"`
	VerifyMode        VerifyMode    `validate:"oneof=off strict best-effort"`
	MaxInputBytes     int64         `validate:"min=0"`
	DebugOn           bool
	Logger            logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentPDFs: 5,
		WorkerTimeout:     30 * time.Second,
		PatchMode:         PatchRange,
		VerifyMode:        VerifyOff,
		MaxInputBytes:     0,
		DebugOn:           false,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}
