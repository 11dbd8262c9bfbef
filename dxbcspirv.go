// Package dxbcspirv translates compiled Direct3D shader bytecode (DXBC)
// to SPIR-V for consumption by a Vulkan backend.
//
// DXBC is a chunked binary container holding input/output signatures plus
// a token-stream shader body. This package parses the container, decodes
// the token stream into structured instructions, and lowers them to a
// SPIR-V module together with a resource-binding descriptor list.
//
// The package provides a simple, high-level API as well as lower-level
// access to the individual translation stages:
//
//	result, err := dxbcspirv.Compile(blob)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	createVulkanShaderModule(result.Words)
//	bindDescriptors(result.Bindings)
//
// For more control, parse first and inspect the decoded module:
//
//	module, _ := dxbcspirv.Parse(blob)
//	for _, inst := range module.Instructions { ... }
//	result, _ := dxbcspirv.CompileModule(module, opts)
package dxbcspirv

import (
	"github.com/dxbcspirv/dxbcspirv/compiler"
	"github.com/dxbcspirv/dxbcspirv/dxbc"
)

// Module is a fully decoded DXBC shader: the program version, the
// container's signature tables, and the structured instruction list.
type Module struct {
	Version       dxbc.ProgramVersion
	Input         *dxbc.SignatureTable
	Output        *dxbc.SignatureTable
	PatchConstant *dxbc.SignatureTable
	Instructions  []*dxbc.Instruction
	Warnings      []string
}

// Parse decodes a DXBC container into a Module: container envelope,
// signature chunks, and the full instruction stream. Any malformed
// input returns a *dxbc.Error; no partial module is returned.
func Parse(data []byte) (*Module, error) {
	container, err := dxbc.ParseContainer(data)
	if err != nil {
		return nil, err
	}

	m := &Module{Warnings: container.Warnings}

	m.Input, err = parseSignature(container, dxbc.TagISG1, dxbc.TagISGN)
	if err != nil {
		return nil, err
	}
	m.Output, err = parseSignature(container, dxbc.TagOSG5, dxbc.TagOSG1, dxbc.TagOSGN)
	if err != nil {
		return nil, err
	}
	m.PatchConstant, err = parseSignature(container, dxbc.TagPSG1)
	if err != nil {
		return nil, err
	}

	_, payload, _ := container.ShaderChunk()
	tokens, err := dxbc.NewTokenReader(payload)
	if err != nil {
		return nil, err
	}
	version, _, err := tokens.ReadProgramVersion()
	if err != nil {
		return nil, err
	}
	m.Version = version

	decoder := dxbc.NewDecoder(tokens)
	for !decoder.Done() {
		inst, err := decoder.Next()
		if err != nil {
			return nil, err
		}
		if inst == nil {
			break
		}
		m.Instructions = append(m.Instructions, inst)
	}
	return m, nil
}

// parseSignature decodes the first present chunk among tags (listed most
// specific first) into a SignatureTable, or an empty table when the
// container carries none — vertex shaders legitimately have no
// patch-constant signature, compute shaders no signatures at all.
func parseSignature(container *dxbc.Container, tags ...string) (*dxbc.SignatureTable, error) {
	for _, tag := range tags {
		if payload := container.Chunk(tag); payload != nil {
			return dxbc.ParseSignature(tag, payload)
		}
	}
	return &dxbc.SignatureTable{}, nil
}

// Compile translates a DXBC container to SPIR-V using default options.
func Compile(data []byte) (*compiler.Result, error) {
	return CompileWithOptions(data, compiler.DefaultOptions())
}

// CompileWithOptions translates a DXBC container to SPIR-V. The pipeline
// is strictly linear: container parse, signature decode, instruction
// decode, per-instruction lowering.
func CompileWithOptions(data []byte, opts compiler.Options) (*compiler.Result, error) {
	module, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return CompileModule(module, opts)
}

// CompileModule lowers an already parsed Module to SPIR-V.
func CompileModule(m *Module, opts compiler.Options) (*compiler.Result, error) {
	result, err := compiler.Compile(m.Version, m.Input, m.Output, m.PatchConstant, m.Instructions, opts)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(m.Warnings, result.Warnings...)
	return result, nil
}
