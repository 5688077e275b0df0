// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build !windows

package main

import (
	_ "github.com/argent-engine/rhi/rhi/vk"
)
