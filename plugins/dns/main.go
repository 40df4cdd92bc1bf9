//go:build wasip1

package main

import (
	"context"

	lion "github.com/lion-wasm/lion/sdk/go"
)

var plugin = &dnsPlugin{}

//go:wasmexport describe
func describe() uint64 {
	md, err := plugin.Describe(context.Background())
	if err != nil {
		return 0
	}
	return lion.EncodeMetadata(md)
}

//go:wasmexport schema
func schema() uint64 {
	data, err := plugin.Schema(context.Background())
	if err != nil {
		return 0
	}
	return lion.EncodeSchema(data)
}

//go:wasmexport observe
func observe(configPtr, configLen uint32) uint64 {
	cfg, err := lion.DecodeConfig(configPtr, configLen)
	if err != nil {
		return lion.EncodeEvidence(lion.Failure("invalid_config", err.Error()))
	}
	ev, err := plugin.Check(context.Background(), cfg)
	if err != nil {
		return lion.EncodeEvidence(lion.Failure("check_failed", err.Error()))
	}
	return lion.EncodeEvidence(ev)
}

func main() {}
